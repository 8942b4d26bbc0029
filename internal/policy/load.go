package policy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/nightwatch/internal/types"
)

//go:embed schema.cue
var schemaSource string

// Document is the on-disk shape of a policy file.
type Document struct {
	Policies []types.Policy `json:"policies" yaml:"policies"`
}

// schema holds the compiled CUE definition. cue values are not safe for
// concurrent unification, so access goes through mu.
var schema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
}

func policyDef() (*cue.Context, cue.Value, error) {
	schema.once.Do(func() {
		schema.ctx = cuecontext.New()
		v := schema.ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if v.Err() != nil {
			schema.err = fmt.Errorf("compiling policy schema: %w", v.Err())
			return
		}
		schema.def = v.LookupPath(cue.ParsePath("#Policy"))
		if !schema.def.Exists() {
			schema.err = fmt.Errorf("policy schema has no #Policy definition")
		}
	})
	return schema.ctx, schema.def, schema.err
}

// CheckSchema validates a raw policy against the embedded CUE schema.
// Errors wrap ErrInvalidPolicy and list every failing path.
func CheckSchema(p types.Policy) error {
	ctx, def, err := policyDef()
	if err != nil {
		return err
	}
	schema.mu.Lock()
	defer schema.mu.Unlock()

	unified := def.Unify(ctx.Encode(p))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range errors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("%w: policy %q: %s", ErrInvalidPolicy, p.ID, strings.Join(msgs, "; "))
	}
	return nil
}

// Decode reads a policy document in YAML or JSON (chosen by extension,
// defaulting to YAML), checks every policy against the schema and parses it.
func Decode(name string, data []byte) ([]types.Policy, []Rule, error) {
	var doc Document
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	}
	for i, p := range doc.Policies {
		if err := CheckSchema(p); err != nil {
			return nil, nil, fmt.Errorf("%s: policies[%d]: %w", name, i, err)
		}
	}
	rules, err := ParseAll(doc.Policies)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc.Policies, rules, nil
}

// LoadFile reads and validates a policy document from disk.
func LoadFile(path string) ([]types.Policy, []Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Decode(path, data)
}
