package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/crmsync/internal/health"
	syncsvc "github.com/vladislavdragonenkov/crmsync/internal/service/sync"
	"github.com/vladislavdragonenkov/crmsync/internal/source/shopify"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// webhookHandler принимает вебхуки источника о новых оплаченных заказах.
type webhookHandler struct {
	orchestrator *syncsvc.Orchestrator
	secret       string
	logger       *log.Entry
}

func newWebhookHandler(orchestrator *syncsvc.Orchestrator, secret string, logger *log.Entry) *webhookHandler {
	return &webhookHandler{
		orchestrator: orchestrator,
		secret:       secret,
		logger:       logger.WithField("layer", "webhook"),
	}
}

// ServeHTTP обрабатывает POST /webhooks/orders/paid: проверка подписи,
// разбор заказа, точечная запись. Повторная доставка отвечает 200 со
// статусом duplicate — источник не должен ретраить то, что уже записано.
func (h *webhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.WithError(err).Warn("failed to read webhook body")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Shopify-Hmac-Sha256")
	if !shopify.VerifyWebhookHMAC(body, signature, h.secret) {
		h.logger.Warn("webhook signature rejected")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	order, err := shopify.ParseWebhookOrder(body)
	if err != nil {
		h.logger.WithError(err).Warn("failed to parse webhook order")
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid"})
		return
	}

	status, err := h.orchestrator.IngestOrder(r.Context(), order)
	if err != nil {
		h.logger.WithError(err).Error("webhook ingest failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": webhookStatus(status)})
}

// webhookStatus переводит исход записи в словарь ответа вебхука.
func webhookStatus(status syncsvc.IngestStatus) string {
	switch status {
	case syncsvc.IngestStatusValid:
		return "success"
	case syncsvc.IngestStatusIgnored:
		return "skipped"
	default:
		return "duplicate"
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// newHTTPServer собирает вебхук-сервер приложения.
func newHTTPServer(addr string, orchestrator *syncsvc.Orchestrator, secret string, healthHandler *healthcheck.Handler, logger *log.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/webhooks/orders/paid", newWebhookHandler(orchestrator, secret, logger))
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	return &http.Server{Addr: addr, Handler: mux}
}

// newMetricsServer собирает HTTP-сервер метрик и health-проверок.
func newMetricsServer(addr string, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	return &http.Server{Addr: addr, Handler: mux}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
