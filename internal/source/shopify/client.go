package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultRetryAfter  = 2 * time.Second
	// maxPageLimit — максимум заказов на страницу, который отдаёт Admin API.
	maxPageLimit = 250
)

// Config — реквизиты доступа к Admin API магазина.
type Config struct {
	// ShopName — домен магазина (например, "store.myshopify.com").
	ShopName string
	// AccessToken — токен приложения для заголовка X-Shopify-Access-Token.
	AccessToken string
	// APIVersion — версия Admin API (например, "2024-07").
	APIVersion string
	// BaseURL переопределяет адрес API (для тестов). Пустой — собирается из ShopName.
	BaseURL string
}

// Validate проверяет, что обязательные реквизиты заполнены.
func (c Config) Validate() error {
	if c.ShopName == "" && c.BaseURL == "" {
		return errors.New("shopify shop name is required")
	}
	if c.AccessToken == "" {
		return errors.New("shopify access token is required")
	}
	if c.APIVersion == "" {
		return errors.New("shopify api version is required")
	}
	return nil
}

// Client — адаптер источника заказов поверх Shopify Admin REST API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Entry
}

// NewClient создаёт адаптер источника заказов.
func NewClient(cfg Config, logger *log.Entry) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.WithField("component", "shopify")
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: defaultHTTPTimeout},
		logger: logger,
	}, nil
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimSuffix(c.cfg.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s/admin/api/%s", c.cfg.ShopName, c.cfg.APIVersion)
}

// FetchPages начинает постраничную выборку оплаченных заказов начиная с since.
// Параметры запроса уходят только в первый запрос; дальше навигация идёт по
// Link-заголовку Shopify.
func (c *Client) FetchPages(req domain.FetchRequest) domain.OrderPager {
	limit := req.BatchSize
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	order := req.Order
	if order == "" {
		order = domain.FetchDesc
	}

	params := url.Values{}
	params.Set("financial_status", "paid")
	params.Set("status", "any")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("created_at_min", req.Since.Format(time.RFC3339))
	params.Set("order", "created_at "+string(order))

	return &orderPager{
		client: c,
		next:   c.baseURL() + "/orders.json?" + params.Encode(),
	}
}

// orderPager обходит страницы заказов. После rate-limit ошибки next не
// сдвигается, поэтому повторный вызов Next повторяет тот же запрос.
type orderPager struct {
	client *Client
	next   string
}

func (p *orderPager) Next(ctx context.Context) ([]domain.Order, bool, error) {
	if p.next == "" {
		return nil, true, nil
	}

	body, header, err := p.client.get(ctx, p.next)
	if err != nil {
		return nil, false, err
	}

	var payload struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode orders page: %w", err)
	}

	p.next = nextPageURL(header.Get("Link"))

	if len(payload.Orders) == 0 {
		return nil, true, nil
	}

	batch := make([]domain.Order, 0, len(payload.Orders))
	for _, raw := range payload.Orders {
		order, err := raw.toDomain()
		if err != nil {
			return nil, false, err
		}
		batch = append(batch, order)
	}

	return batch, p.next == "", nil
}

// GetOrder возвращает один заказ по id (путь валидации webhook-доставок).
func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	id := domain.NormalizeOrderID(orderID)
	body, _, err := c.get(ctx, c.baseURL()+"/orders/"+url.PathEscape(id)+".json")
	if err != nil {
		return domain.Order{}, err
	}

	var payload struct {
		Order *orderPayload `json:"order"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	if payload.Order == nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return payload.Order.toDomain()
}

// get выполняет GET с авторизацией и разбирает статусы ответа:
// 429 → RateLimitedError, 404 → ErrOrderNotFound, прочие не-200 фатальны.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build shopify request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("shopify request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
				retryAfter = time.Duration(secs * float64(time.Second))
			}
		}
		c.logger.WithField("retry_after", retryAfter).Debug("shopify rate limit hit")
		return nil, nil, &domain.RateLimitedError{RetryAfter: retryAfter}
	case http.StatusNotFound:
		return nil, nil, domain.ErrOrderNotFound
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("shopify api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read shopify response: %w", err)
	}

	return body, resp.Header, nil
}

// nextPageURL достаёт ссылку rel="next" из Link-заголовка Shopify.
// Формат: <https://...>; rel="next", <https://...>; rel="previous".
func nextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		u := strings.SplitN(part, ";", 2)[0]
		u = strings.TrimSpace(u)
		u = strings.TrimPrefix(u, "<")
		u = strings.TrimSuffix(u, ">")
		return u
	}
	return ""
}

var _ domain.OrderSource = (*Client)(nil)
