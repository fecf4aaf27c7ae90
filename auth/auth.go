// Package auth decides who is calling. Credentials are issued by an external identity provider; this package
// only verifies them and yields the caller's principal.
package auth

import (
	"net/http"

	"wuyrush.io/photo/config"
	pe "wuyrush.io/photo/errors"
)

// Authorizer yields the principal of an authenticated request, or an ErrCodeUnauthorized error
type Authorizer interface {
	Authorize(r *http.Request) (string, *pe.Err)
}

// New returns the Authorizer configured by cfg. It returns nil when the auth gate is disabled.
func New(cfg *config.Config) (Authorizer, error) {
	if cfg.AuthDisabled {
		return nil, nil
	}
	switch cfg.AuthMode {
	case config.AuthModeBasic:
		a, err := NewBasicAuthorizerFromFile(cfg.BasicCredentialsFile)
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.AuthModeSession:
		return NewSessionAuthorizer([]byte(cfg.SessionSecret), cfg.SessionName), nil
	default:
		return nil, pe.NewBadInput("unsupported auth mode " + cfg.AuthMode)
	}
}
