package gateway

import (
	"errors"
	"marketplace_refunds/internal/conf"
	"sync/atomic"
)

var ErrNoCredentials = errors.New("gateway credentials are not configured")

// CredentialStore holds the active provider configuration. Rotate swaps it atomically,
// so an in-flight call keeps the credentials it started with.
type CredentialStore struct {
	current atomic.Pointer[conf.GatewayConfig]
}

func NewCredentialStore(cfg *conf.GatewayConfig) (*CredentialStore, error) {
	s := &CredentialStore{}
	if err := s.Rotate(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns a snapshot of the active configuration.
func (s *CredentialStore) Current() (*conf.GatewayConfig, error) {
	cfg := s.current.Load()
	if cfg == nil {
		return nil, ErrNoCredentials
	}
	return cfg, nil
}

// Rotate validates cfg and makes it the active configuration.
func (s *CredentialStore) Rotate(cfg *conf.GatewayConfig) error {
	if cfg == nil {
		return ErrNoCredentials
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cp := *cfg
	s.current.Store(&cp)
	return nil
}
