package auth

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/bcrypt"
	pe "wuyrush.io/photo/errors"
)

// BasicAuthorizer checks HTTP basic credentials against bcrypt hashes keyed by user name
type BasicAuthorizer struct {
	hashes map[string][]byte
	// compared against when the user is unknown so that both paths cost one bcrypt round
	dummy []byte
}

// NewBasicAuthorizer parses htpasswd-style lines of "user:bcrypt-hash". Blank lines and lines starting with
// '#' are skipped.
func NewBasicAuthorizer(r io.Reader) (*BasicAuthorizer, *pe.Err) {
	hashes := map[string][]byte{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, pe.NewBadInput(fmt.Sprintf("malformed credentials on line %d", lineNo))
		}
		if _, err := bcrypt.Cost([]byte(parts[1])); err != nil {
			return nil, pe.NewBadInput("credentials for " + parts[0] + " are not a bcrypt hash").WithCause(err)
		}
		hashes[parts[0]] = []byte(parts[1])
	}
	if err := sc.Err(); err != nil {
		return nil, pe.NewServiceFailure("error reading credentials").WithCause(err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("photo"), bcrypt.DefaultCost)
	if err != nil {
		return nil, pe.NewServiceFailure("error preparing credentials check").WithCause(err)
	}
	return &BasicAuthorizer{hashes: hashes, dummy: dummy}, nil
}

func NewBasicAuthorizerFromFile(path string) (*BasicAuthorizer, *pe.Err) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, pe.NewBadInput("invalid credentials file path").WithCause(err)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, pe.NewBadInput("error opening credentials file").WithCause(err)
	}
	defer f.Close()
	return NewBasicAuthorizer(f)
}

func (a *BasicAuthorizer) Authorize(r *http.Request) (string, *pe.Err) {
	user, passwd, ok := r.BasicAuth()
	if !ok || user == "" {
		return "", pe.NewUnauthorized("missing basic credentials")
	}
	hash, known := a.hashes[user]
	if !known {
		bcrypt.CompareHashAndPassword(a.dummy, []byte(passwd))
		return "", pe.NewUnauthorized("unknown user")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(passwd)); err != nil {
		return "", pe.NewUnauthorized("wrong password").WithCause(err)
	}
	return user, nil
}
