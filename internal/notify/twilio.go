package notify

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/matthewbaird/nightwatch/internal/logging"
)

type smsAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioPager texts operator alerts to the manager's phone.
type TwilioPager struct {
	api       smsAPI
	fromPhone string
	toPhone   string
}

// NewTwilioPager creates a pager using account credentials.
func NewTwilioPager(accountSID, authToken, fromPhone, operatorPhone string) *TwilioPager {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioPager{api: client.Api, fromPhone: fromPhone, toPhone: operatorPhone}
}

func (p *TwilioPager) NotifyOperator(_ context.Context, organizationID, message string) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(p.toPhone)
	params.SetFrom(p.fromPhone)
	params.SetBody("Night Watch Alert :: " + message)

	if _, err := p.api.CreateMessage(params); err != nil {
		logging.Logger.WithError(err).
			WithField("organization_id", organizationID).
			Warnf("Failed to send operator SMS to %s", p.toPhone)
	}
}
