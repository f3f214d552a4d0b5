package webhook

import (
	"net/http"
	"testing"
)

func TestGateOpenMode(t *testing.T) {
	gate := NewGate("")
	if !gate.Open() {
		t.Fatal("empty secret should report open mode")
	}
	if !gate.Authorize(http.Header{}) {
		t.Fatal("open mode should authorize requests without credentials")
	}
}

func TestGateAPIKeyHeader(t *testing.T) {
	gate := NewGate("secret1")

	headers := http.Header{}
	headers.Set("x-api-key", "secret1")
	if !gate.Authorize(headers) {
		t.Fatal("matching api key should authorize")
	}

	headers = http.Header{}
	headers.Set("X-Api-Key", "wrong")
	if gate.Authorize(headers) {
		t.Fatal("mismatched api key must not authorize")
	}
}

func TestGateLegacySignatureHeader(t *testing.T) {
	gate := NewGate("secret1")

	headers := http.Header{}
	headers.Set("X-Signature", "secret1")
	if !gate.Authorize(headers) {
		t.Fatal("legacy signature slot should still authorize")
	}
}

func TestGateMissingCredential(t *testing.T) {
	gate := NewGate("secret1")
	if gate.Authorize(http.Header{}) {
		t.Fatal("request without credential must not authorize")
	}
}

func TestGateEitherSlotSuffices(t *testing.T) {
	gate := NewGate("secret1")

	headers := http.Header{}
	headers.Set("X-Api-Key", "wrong")
	headers.Set("X-Signature", "secret1")
	if !gate.Authorize(headers) {
		t.Fatal("a match in either header slot should authorize")
	}
}
