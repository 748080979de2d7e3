package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hossamelshenawy/device-valuator/internal/metrics"
	domain "github.com/hossamelshenawy/device-valuator/pkg/types"
)

const (
	defaultSerpURL  = "https://serpapi.com/search.json"
	defaultLocation = "Cairo, Egypt"
	defaultCurrency = "EGP"
)

// defaultSites are the retail sites queried for Egyptian market prices.
var defaultSites = []string{
	"jumia.com.eg", "noon.com/egypt", "dubaiphone.net", "egyptlaptop.com",
	"cairosales.com", "dream2000.com", "b.tech", "2b.com.eg",
	"elarabygroup.com",
}

// storeNames maps link substrings to display names. Checked in order, so
// a link matching more than one key always resolves to the same name.
var storeNames = []struct {
	key  string
	name string
}{
	{"jumia", "Jumia Egypt"},
	{"noon", "Noon"},
	{"b.tech", "B.TECH"},
	{"2b.com", "2B Egypt"},
	{"dream2000", "Dream 2000"},
	{"dubaiphone", "Dubai Phone"},
	{"elaraby", "El Araby Group"},
}

// SerpClient implements Source using a SerpAPI-compatible search endpoint.
type SerpClient struct {
	apiKey    string
	baseURL   string
	location  string
	currency  string
	sites     []string
	client    *http.Client
	limiter   *Limiter
	extractor *Extractor
	nowFunc   func() time.Time
	log       *slog.Logger
}

// SerpOption configures the SerpClient.
type SerpOption func(*SerpClient)

// WithSerpURL overrides the default search endpoint.
func WithSerpURL(u string) SerpOption {
	return func(c *SerpClient) {
		c.baseURL = u
	}
}

// WithSerpHTTPClient overrides the default HTTP client.
func WithSerpHTTPClient(hc *http.Client) SerpOption {
	return func(c *SerpClient) {
		c.client = hc
	}
}

// WithSites overrides the retail sites included in queries.
func WithSites(sites []string) SerpOption {
	return func(c *SerpClient) {
		c.sites = sites
	}
}

// WithLocation overrides the geographic bias of searches.
func WithLocation(loc string) SerpOption {
	return func(c *SerpClient) {
		c.location = loc
	}
}

// WithCurrency sets the currency attached to extracted observations.
func WithCurrency(code string) SerpOption {
	return func(c *SerpClient) {
		c.currency = code
	}
}

// WithSerpLimiter injects a rate limiter. When set, every search goes
// through Wait() first.
func WithSerpLimiter(l *Limiter) SerpOption {
	return func(c *SerpClient) {
		c.limiter = l
	}
}

// WithSerpNowFunc overrides the time function for testing.
func WithSerpNowFunc(f func() time.Time) SerpOption {
	return func(c *SerpClient) {
		c.nowFunc = f
	}
}

// WithSerpLogger overrides the default logger.
func WithSerpLogger(log *slog.Logger) SerpOption {
	return func(c *SerpClient) {
		c.log = log
	}
}

// NewSerpClient creates a search client for the given API key.
func NewSerpClient(apiKey string, opts ...SerpOption) *SerpClient {
	c := &SerpClient{
		apiKey:    apiKey,
		baseURL:   defaultSerpURL,
		location:  defaultLocation,
		currency:  defaultCurrency,
		sites:     defaultSites,
		client:    &http.Client{Timeout: 30 * time.Second},
		extractor: NewExtractor(),
		nowFunc:   time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type organicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type serpResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Observations searches used-market listings for the device and returns
// currency-anchored prices as market observations. Listings that do not
// clearly refer to used units are dropped.
func (c *SerpClient) Observations(ctx context.Context, spec domain.DeviceSpec) ([]domain.MarketObservation, error) {
	name := deviceName(spec)
	query := fmt.Sprintf("%q used price %s", name, c.siteFilter())

	results, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	now := c.nowFunc()
	var obs []domain.MarketObservation
	for _, r := range results {
		text := r.Title + " " + r.Snippet
		if !mentionsUsed(text) {
			continue
		}
		price, ok := c.extractor.Price(text)
		if !ok {
			continue
		}
		obs = append(obs, domain.MarketObservation{
			Price:     price,
			Currency:  c.currency,
			Source:    storeName(r.Link),
			Timestamp: now,
			Condition: "used",
		})
	}

	c.log.Debug("used-market search complete",
		"device", name, "raw", len(results), "observations", len(obs))
	return obs, nil
}

// NewPrice searches new-unit retail listings for the device and returns the
// median of the extracted prices. Listings mentioning used or refurbished
// units are dropped.
func (c *SerpClient) NewPrice(ctx context.Context, spec domain.DeviceSpec) (decimal.Decimal, error) {
	name := deviceName(spec)
	query := fmt.Sprintf("%q NEW price %s -used -مستعمل", name, c.siteFilter())

	results, err := c.search(ctx, query)
	if err != nil {
		return decimal.Zero, err
	}

	var prices []decimal.Decimal
	for _, r := range results {
		text := r.Title + " " + r.Snippet
		if mentionsUsed(text) {
			continue
		}
		if price, ok := c.extractor.Price(text); ok {
			prices = append(prices, price)
		}
	}

	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoResults, name)
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	median := prices[len(prices)/2]

	c.log.Debug("new-price search complete",
		"device", name, "prices", len(prices), "median", median)
	return median, nil
}

func (c *SerpClient) search(ctx context.Context, query string) ([]organicResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	metrics.SearchCallsTotal.Inc()

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("location", c.location)
	params.Set("hl", "en")
	params.Set("num", "30")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.SearchErrorsTotal.Inc()
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SearchErrorsTotal.Inc()
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.SearchErrorsTotal.Inc()
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.SearchErrorsTotal.Inc()
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return parsed.OrganicResults, nil
}

func (c *SerpClient) siteFilter() string {
	parts := make([]string, len(c.sites))
	for i, s := range c.sites {
		parts[i] = "site:" + s
	}
	return strings.Join(parts, " OR ")
}

func storeName(link string) string {
	lower := strings.ToLower(link)
	for _, s := range storeNames {
		if strings.Contains(lower, s.key) {
			return s.name
		}
	}
	return "Egyptian Retailer"
}

func deviceName(spec domain.DeviceSpec) string {
	return strings.TrimSpace(spec.Brand + " " + spec.Model)
}
