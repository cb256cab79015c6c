package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mealcart/internal/config"
	"mealcart/internal/shopping"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// WalmartFiller searches walmart.com for each item and adds the first match
// to the cart of the session identified by the configured cookie.
type WalmartFiller struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewWalmartFiller creates a filler for cfg.WalmartBaseURL.
func NewWalmartFiller(cfg *config.Config, logger *zap.Logger) *WalmartFiller {
	return &WalmartFiller{
		baseURL:    strings.TrimRight(cfg.WalmartBaseURL, "/"),
		cookie:     cfg.WalmartCookie,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger.Named("cart"),
		now:        time.Now,
	}
}

// Fill implements Filler.
func (w *WalmartFiller) Fill(ctx context.Context, items []shopping.AggregatedIngredient) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		Results:   make([]ItemResult, 0, len(items)),
		StartedAt: w.now().UTC(),
	}
	log := w.logger.With(zap.String("run_id", report.RunID))
	log.Info("cart run started", zap.Int("items", len(items)))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = w.now().UTC()
			log.Warn("cart run cancelled", zap.Int("attempted", len(report.Results)), zap.Error(err))
			return report, fmt.Errorf("cart run interrupted: %w", err)
		}

		res := ItemResult{Name: item.Name, Amount: item.Amount, Unit: item.Unit}
		product, err := w.search(ctx, item.Name)
		if err == nil {
			res.Product = product
			err = w.addToCart(ctx, product, Quantity(item))
		}
		if err != nil {
			res.Error = err.Error()
			log.Warn("failed to add item", zap.String("item", item.Name), zap.Error(err))
		} else {
			res.Added = true
			log.Debug("item added", zap.String("item", item.Name), zap.String("product_id", product.ID))
		}
		report.record(res)
	}

	report.FinishedAt = w.now().UTC()
	log.Info("cart run finished", zap.Int("added", report.Added), zap.Int("failed", report.Failed))
	return report, nil
}

// search returns the first product tile of the search results page for query.
func (w *WalmartFiller) search(ctx context.Context, query string) (*Product, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s", w.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	w.setHeaders(req)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to search products: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return firstProduct(doc, w.baseURL)
}

func firstProduct(doc *goquery.Document, baseURL string) (*Product, error) {
	tile := doc.Find("[data-item-id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("data-item-id")
		return strings.TrimSpace(id) != ""
	}).First()
	if tile.Length() == 0 {
		return nil, ErrProductNotFound
	}

	id, _ := tile.Attr("data-item-id")
	p := &Product{
		ID:    strings.TrimSpace(id),
		Title: strings.TrimSpace(tile.Find("[data-automation-id='product-title']").First().Text()),
		Price: strings.TrimSpace(tile.Find("[data-automation-id='product-price'] [itemprop='price'], [itemprop='price']").First().Text()),
	}
	if href, ok := tile.Find("a[href*='/ip/']").First().Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			href = baseURL + href
		}
		p.URL = href
	}
	return p, nil
}

type addToCartRequest struct {
	Items []addToCartItem `json:"items"`
}

type addToCartItem struct {
	USItemID string `json:"usItemId"`
	Quantity int    `json:"quantity"`
}

func (w *WalmartFiller) addToCart(ctx context.Context, p *Product, quantity int) error {
	body, err := json.Marshal(addToCartRequest{Items: []addToCartItem{{USItemID: p.ID, Quantity: quantity}}})
	if err != nil {
		return fmt.Errorf("failed to marshal cart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/api/v3/cart/:CRT/items", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build cart request: %w", err)
	}
	w.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("failed to add to cart: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (w *WalmartFiller) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if w.cookie != "" {
		req.Header.Set("Cookie", w.cookie)
	}
}
