package webhook

import (
	"crypto/subtle"
	"net/http"
)

// Header slots the provider may use to present the shared secret. The
// signature header is the legacy slot kept for older provider versions
// that sent the secret there verbatim.
const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderSignature = "X-Signature"
)

// Gate authorizes inbound webhook requests against a pre-shared secret.
type Gate struct {
	secret string
}

// NewGate constructs an ingress gate. An empty secret disables
// authorization: every request passes. That is an explicitly insecure
// debugging posture.
func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Open reports whether the gate runs without a configured secret.
func (g *Gate) Open() bool {
	return g.secret == ""
}

// Authorize is a pure predicate over the request headers. The secret is
// accepted from either header slot; comparison is constant-time so the
// gate leaks nothing about prefix matches.
func (g *Gate) Authorize(headers http.Header) bool {
	if g.secret == "" {
		return true
	}
	for _, name := range []string{HeaderAPIKey, HeaderSignature} {
		supplied := headers.Get(name)
		if supplied == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(g.secret)) == 1 {
			return true
		}
	}
	return false
}
