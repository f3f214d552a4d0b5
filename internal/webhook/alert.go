package webhook

import (
	"github.com/shopspring/decimal"
)

// Sentinel values substituted for fields absent in the provider payload.
// Alerts carry no null/missing fields downstream.
const (
	UnknownChain = "unknown"
)

// Alert is a normalized whale-transaction event whose USD value met the
// configured threshold at extraction time. It lives for the duration of
// one request.
type Alert struct {
	Chain    string
	TxHash   string
	From     string
	To       string
	USDValue decimal.Decimal
}
