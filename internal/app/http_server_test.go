package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	syncsvc "github.com/vladislavdragonenkov/crmsync/internal/service/sync"
	"github.com/vladislavdragonenkov/crmsync/internal/storage/memory"
)

const testWebhookSecret = "test-secret"

// emptySource — источник-заглушка: вебхук-путь источник не трогает.
type emptySource struct{}

func (emptySource) FetchPages(domain.FetchRequest) domain.OrderPager { return emptyPager{} }

func (emptySource) GetOrder(context.Context, string) (domain.Order, error) {
	return domain.Order{}, domain.ErrOrderNotFound
}

type emptyPager struct{}

func (emptyPager) Next(context.Context) ([]domain.Order, bool, error) { return nil, true, nil }

func newTestWebhookHandler() *webhookHandler {
	orch := syncsvc.NewOrchestrator(
		emptySource{},
		memory.NewOrderLedger(),
		memory.NewCustomerTable(),
		memory.NewSyncRunRepository(),
		nil,
		nil,
		syncsvc.Config{},
	)
	return newWebhookHandler(orch, testWebhookSecret, log.WithField("component", "test"))
}

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, handler http.Handler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/paid", strings.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", signature)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload["status"]
}

func TestWebhookIngestAndDuplicate(t *testing.T) {
	handler := newTestWebhookHandler()
	body := `{"id": 1001, "created_at": "2025-05-01T10:00:00-03:00", "total_price": "150.00", "total_refunded": "0.00", "customer": {"id": 7, "first_name": "Ana", "last_name": "Silva", "email": "ana@example.com"}}`

	w := postWebhook(t, handler, body, sign(body, testWebhookSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if status := decodeStatus(t, w); status != "success" {
		t.Fatalf("expected success, got %s", status)
	}

	// Повторная доставка того же заказа.
	w = postWebhook(t, handler, body, sign(body, testWebhookSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", w.Code)
	}
	if status := decodeStatus(t, w); status != "duplicate" {
		t.Fatalf("expected duplicate, got %s", status)
	}
}

func TestWebhookSkipsCancelledOrder(t *testing.T) {
	handler := newTestWebhookHandler()
	body := `{"id": 1002, "created_at": "2025-05-01T10:00:00-03:00", "cancelled_at": "2025-05-02T10:00:00-03:00", "total_price": "80.00", "total_refunded": "0.00", "customer": {"id": 8}}`

	w := postWebhook(t, handler, body, sign(body, testWebhookSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if status := decodeStatus(t, w); status != "skipped" {
		t.Fatalf("cancelled order must be skipped, got %s", status)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	handler := newTestWebhookHandler()
	body := `{"id": 1003, "total_price": "10.00"}`

	w := postWebhook(t, handler, body, sign(body, "wrong-secret"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = postWebhook(t, handler, body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", w.Code)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	handler := newTestWebhookHandler()
	body := `{not json`

	w := postWebhook(t, handler, body, sign(body, testWebhookSecret))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookRejectsNonPost(t *testing.T) {
	handler := newTestWebhookHandler()

	req := httptest.NewRequest(http.MethodGet, "/webhooks/orders/paid", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
