package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	pe "wuyrush.io/photo/errors"
)

// SessionKeyPrincipal is the session value holding the caller identity
const SessionKeyPrincipal = "principal"

// SessionAuthorizer reads the principal from a signed cookie session. The cookie is issued by the identity
// provider sharing the same secret; gorilla's cookie store rejects anything not signed with it.
type SessionAuthorizer struct {
	Store sessions.Store
	Name  string
}

func NewSessionAuthorizer(secret []byte, name string) *SessionAuthorizer {
	store := sessions.NewCookieStore(secret)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return &SessionAuthorizer{Store: store, Name: name}
}

func (a *SessionAuthorizer) Authorize(r *http.Request) (string, *pe.Err) {
	s, err := a.Store.Get(r, a.Name)
	if err != nil {
		return "", pe.NewUnauthorized("invalid session").WithCause(err)
	}
	principal, _ := s.Values[SessionKeyPrincipal].(string)
	if principal == "" {
		return "", pe.NewUnauthorized("no principal in session")
	}
	return principal, nil
}

// Issue stores the principal into the caller's session cookie
func (a *SessionAuthorizer) Issue(w http.ResponseWriter, r *http.Request, principal string) error {
	s, err := a.Store.Get(r, a.Name)
	if err != nil && s == nil {
		return err
	}
	s.Values[SessionKeyPrincipal] = principal
	return s.Save(r, w)
}
