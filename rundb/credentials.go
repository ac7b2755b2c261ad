package rundb

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

type credKind int

const (
	credNone credKind = iota
	credBasic
	credBearer
)

// Credentials selects exactly one authentication mechanism for the client.
// The zero value sends unauthenticated requests.
type Credentials struct {
	kind     credKind
	user     string
	password string
	source   oauth2.TokenSource
}

// BasicAuth authenticates every request with HTTP basic auth.
func BasicAuth(user, password string) Credentials {
	return Credentials{kind: credBasic, user: user, password: password}
}

// Token authenticates every request with a fixed bearer token. The token is
// never refreshed; callers that need rotation supply their own TokenSource.
func Token(token string) Credentials {
	return TokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// TokenSource authenticates with bearer tokens drawn from src on demand.
func TokenSource(src oauth2.TokenSource) Credentials {
	return Credentials{kind: credBearer, source: src}
}

// resolveCredentials applies the configured precedence: a user wins over a
// token when both are set. This ordering is intentional and kept stable for
// existing configurations.
func resolveCredentials(cfg Config) Credentials {
	switch {
	case cfg.User != "":
		return BasicAuth(cfg.User, cfg.Password)
	case cfg.TokenSource != nil:
		return TokenSource(cfg.TokenSource)
	case cfg.Token != "":
		return Token(cfg.Token)
	}
	return Credentials{}
}

func (c Credentials) apply(req *http.Request) error {
	switch c.kind {
	case credBasic:
		req.SetBasicAuth(c.user, c.password)
	case credBearer:
		tok, err := c.source.Token()
		if err != nil {
			return fmt.Errorf("bearer token: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	return nil
}
