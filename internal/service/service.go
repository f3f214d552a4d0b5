package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/straider911/9whales/internal/alerting"
	"github.com/straider911/9whales/internal/stats"
	"github.com/straider911/9whales/internal/webhook"
)

// Sink receives extracted alerts for background delivery.
type Sink interface {
	Dispatch(alert webhook.Alert) bool
}

// Service wires the ingestion pipeline: ingress gate, alert extractor,
// and the delivery sink. It owns the HTTP response contract toward the
// provider: only authorization failures surface as non-2xx, everything
// else is absorbed so the provider never retries on decode or delivery
// problems.
type Service struct {
	gate      *webhook.Gate
	extractor *webhook.Extractor
	sink      Sink
	notifier  alerting.Notifier
	counters  *stats.Counters
	logger    zerolog.Logger

	maxBodyBytes int64
}

// Options collect service collaborators. Notifier is only used for the
// digest and may be nil.
type Options struct {
	Gate         *webhook.Gate
	Extractor    *webhook.Extractor
	Sink         Sink
	Notifier     alerting.Notifier
	Counters     *stats.Counters
	MaxBodyBytes int64
}

// New constructs the relay service.
func New(opts Options, logger zerolog.Logger) *Service {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Counters == nil {
		opts.Counters = stats.New()
	}
	return &Service{
		gate:         opts.Gate,
		extractor:    opts.Extractor,
		sink:         opts.Sink,
		notifier:     opts.Notifier,
		counters:     opts.Counters,
		logger:       logger.With().Str("component", "service").Logger(),
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Routes builds the HTTP surface for the given provider slug.
func (s *Service) Routes(provider string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook/"+provider, s.HandleWebhook)
	return mux
}

// HandleWebhook 处理单次 provider 推送:鉴权 → 解析过滤 → 立即响应,
// 投递在后台任务中进行,不阻塞响应。
func (s *Service) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	s.counters.Request()

	if !s.gate.Authorize(r.Header) {
		s.counters.Unauthorized()
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("rejected unauthorized webhook request")
		writeJSON(w, http.StatusForbidden, map[string]any{
			"ok":    false,
			"error": "invalid credential",
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		// Unreadable and oversized bodies get the same quiet treatment as
		// malformed ones: the provider must not be provoked into retries.
		s.counters.MalformedBody()
		s.logger.Warn().Err(err).Msg("failed to read webhook body")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "note": "non-json body"})
		return
	}

	alerts, ok := s.extractor.Extract(body)
	if !ok {
		s.counters.MalformedBody()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "note": "non-json body"})
		return
	}

	for _, alert := range alerts {
		s.sink.Dispatch(alert)
	}
	s.counters.Alerts(len(alerts))

	s.logger.Info().Int("alerts", len(alerts)).Msg("webhook processed")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "alerts": len(alerts)})
}

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(s.counters.Uptime().Seconds()),
	})
}

// Digest 推送一次累计计数摘要,未配置通知通道时为空操作。
func (s *Service) Digest(ctx context.Context, tick time.Time) error {
	if s.notifier == nil {
		return nil
	}

	snap := s.counters.Snapshot()
	text := fmt.Sprintf(
		"📊 <b>whalerelay digest</b>\nRequests: %d\nUnauthorized: %d\nMalformed: %d\nAlerts: %d\nDelivered: %d\nFailed: %d\nDropped: %d\nUptime: %s",
		snap.Requests,
		snap.Unauthorized,
		snap.Malformed,
		snap.Alerts,
		snap.SendsOK,
		snap.SendsFailed,
		snap.Dropped,
		time.Since(snap.StartedAt).Truncate(time.Second),
	)
	if err := s.notifier.Send(ctx, text); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
