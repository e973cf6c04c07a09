package service

import (
	"fmt"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
	"github.com/aussiebroadwan/keygate/pkg/yubico"
)

// PolicyConfig is the deployment level switchboard.
type PolicyConfig struct {
	Enabled     bool
	Required    bool // default for users without a saved preference
	Credentials yubico.Credentials
}

// Policy decides whether the second factor is active and for whom. It is
// immutable after NewPolicy.
type Policy struct {
	enabled  bool
	required bool
}

// NewPolicy validates cfg. Enabling the feature without validation
// credentials is a configuration error.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	if cfg.Enabled {
		if err := cfg.Credentials.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return &Policy{enabled: cfg.Enabled, required: cfg.Required}, nil
}

func (p *Policy) IsEnabled() bool { return p.enabled }

// IsRequiredFor returns the user's own preference when one was saved, and the
// deployment default otherwise.
func (p *Policy) IsRequiredFor(b domain.Binding, found bool) bool {
	if found {
		return b.Required
	}
	return p.required
}

// RequiredDefault is the deployment wide default.
func (p *Policy) RequiredDefault() bool { return p.required }
