package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrDelivery wraps every failure reported by an external provider.
var ErrDelivery = errors.New("notification delivery failed")

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends tenant emails through SendGrid.
type SendGridMailer struct {
	client  sendgridClient
	from    *mail.Email
	sandbox bool
}

// NewSendGridMailer creates a mailer for apiKey. In sandbox mode SendGrid
// validates the request without delivering it.
func NewSendGridMailer(apiKey, fromName, fromEmail string, sandbox bool) *SendGridMailer {
	return &SendGridMailer{
		client:  sendgrid.NewSendClient(apiKey),
		from:    mail.NewEmail(fromName, fromEmail),
		sandbox: sandbox,
	}
}

func (m *SendGridMailer) NotifyByEmail(ctx context.Context, msg Email) error {
	to := mail.NewEmail(msg.Name, msg.To)
	message := mail.NewSingleEmail(m.from, msg.Subject, to, msg.Body, "")
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", ErrDelivery, err)
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid returned %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
