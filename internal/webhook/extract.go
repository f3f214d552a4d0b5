package webhook

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// rawEvent mirrors one provider event. usdValue arrives either as a
// decimal string or as a bare JSON number, so it is kept raw and parsed
// separately.
type rawEvent struct {
	Chain       string          `json:"chain"`
	TxHash      string          `json:"txHash"`
	FromAddress string          `json:"fromAddress"`
	ToAddress   string          `json:"toAddress"`
	USDValue    json.RawMessage `json:"usdValue"`
}

// envelope is the batched provider format.
type envelope struct {
	Events []json.RawMessage `json:"events"`
}

// Extractor turns a raw webhook body into threshold-passing alerts.
// It is a pure function of (body, threshold) and holds no per-request
// state, so a single instance serves all requests.
type Extractor struct {
	threshold decimal.Decimal
	logger    zerolog.Logger
}

// NewExtractor constructs an extractor with an inclusive USD threshold.
func NewExtractor(threshold decimal.Decimal, logger zerolog.Logger) *Extractor {
	return &Extractor{
		threshold: threshold,
		logger:    logger.With().Str("component", "extractor").Logger(),
	}
}

// Threshold returns the configured inclusive USD threshold.
func (e *Extractor) Threshold() decimal.Decimal {
	return e.threshold
}

// Extract parses the body and returns the alerts whose USD value meets
// the threshold, in input order. ok is false only when the body is not
// valid JSON; a malformed individual event never fails the batch.
//
// The body is accepted in two shapes: an object with a non-empty
// "events" array, or a bare single-event object. An empty events array
// falls back to the bare-object reading, matching provider behaviour.
func (e *Extractor) Extract(body []byte) ([]Alert, bool) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		e.logger.Debug().Err(err).Msg("body is not a json object")
		return nil, false
	}

	events := env.Events
	if len(events) == 0 {
		events = []json.RawMessage{json.RawMessage(body)}
	}

	var alerts []Alert
	for i, raw := range events {
		var ev rawEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			// Degrade to an all-default event rather than abort the batch.
			e.logger.Debug().Err(err).Int("index", i).Msg("event is not an object, using defaults")
		}

		value := parseUSDValue(ev.USDValue)
		if value.LessThan(e.threshold) {
			continue
		}

		alerts = append(alerts, Alert{
			Chain:    defaultString(ev.Chain, UnknownChain),
			TxHash:   ev.TxHash,
			From:     ev.FromAddress,
			To:       ev.ToAddress,
			USDValue: value,
		})
	}

	return alerts, true
}

// parseUSDValue reads a decimal string or JSON number with full
// precision. Missing or unparsable values degrade to zero so a single
// bad record never errors the whole batch.
func parseUSDValue(raw json.RawMessage) decimal.Decimal {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 || bytes.Equal(s, []byte("null")) {
		return decimal.Zero
	}
	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(s, &unquoted); err != nil {
			return decimal.Zero
		}
		s = []byte(unquoted)
	}
	value, err := decimal.NewFromString(string(bytes.TrimSpace(s)))
	if err != nil {
		return decimal.Zero
	}
	return value
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
