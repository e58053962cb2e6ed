// internal/product/openfoodfacts.go
package product

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/models"
)

// Config holds the product lookup settings.
type Config struct {
	BaseURL     string
	TimeoutSec  int
	CacheTTLMin int
}

const defaultBaseURL = "https://world.openfoodfacts.org"

// Client looks packaged products up by barcode on Open Food Facts. Results
// are cached in memory: barcodes are immutable keys and the nutrition facts
// of a packaged product change rarely.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *gocache.Cache
	logger  logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ttl := time.Duration(cfg.CacheTTLMin) * time.Minute
	if ttl == 0 {
		ttl = 6 * time.Hour
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   gocache.New(ttl, 2*ttl),
		logger:  log.WithFields(map[string]interface{}{"component": "product_lookup"}),
	}
}

// offResponse is the subset of the Open Food Facts v2 product payload we use.
type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName   string         `json:"product_name"`
		ProductNameEn string         `json:"product_name_en"`
		GenericName   string         `json:"generic_name"`
		Brands        string         `json:"brands"`
		Nutriments    map[string]any `json:"nutriments"`
	} `json:"product"`
}

// LookupByBarcode returns a per-100g estimate for the product, (nil, nil) on
// a miss. Every returned estimate is a packaged product by construction.
func (c *Client) LookupByBarcode(ctx context.Context, code string) (*models.RawMealEstimate, error) {
	if cached, found := c.cache.Get(code); found {
		estimate := cached.(models.RawMealEstimate)
		return &estimate, nil
	}

	url := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build product request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product lookup: status %d", resp.StatusCode)
	}

	var payload offResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}
	if payload.Status != 1 {
		c.logger.Debug("product not found", map[string]interface{}{"barcode": code})
		return nil, nil
	}

	estimate := c.buildEstimate(payload)
	c.cache.SetDefault(code, estimate)
	return &estimate, nil
}

func (c *Client) buildEstimate(payload offResponse) models.RawMealEstimate {
	name := payload.Product.ProductName
	if name == "" {
		name = payload.Product.ProductNameEn
	}
	if name == "" {
		name = payload.Product.GenericName
	}
	if name == "" {
		name = "produit"
	}

	estimate := models.RawMealEstimate{
		DetectedFoods:        []string{name},
		EstimatedProtein:     nutriment(payload.Product.Nutriments, "proteins_100g", 0, 100),
		EstimatedWeightGrams: 100,
		Confidence:           0.9,
		SourceHint:           "openfoodfacts",
	}
	if kcal, ok := kcal100g(payload.Product.Nutriments); ok {
		estimate.EstimatedCalories = &kcal
	}
	if carbs := nutriment(payload.Product.Nutriments, "carbohydrates_100g", 0, 100); carbs > 0 {
		estimate.EstimatedCarbs = &carbs
	}
	if fat := nutriment(payload.Product.Nutriments, "fat_100g", 0, 100); fat > 0 {
		estimate.EstimatedFat = &fat
	}
	if fiber := nutriment(payload.Product.Nutriments, "fiber_100g", 0, 100); fiber > 0 {
		estimate.EstimatedFiber = &fiber
	}
	return estimate
}

// kcal100g prefers energy-kcal_100g and falls back to converting kJ.
func kcal100g(nutriments map[string]any) (float64, bool) {
	if v := nutriment(nutriments, "energy-kcal_100g", 0, 10000); v > 0 {
		return v, true
	}
	if v := nutriment(nutriments, "energy-kj_100g", 0, 42000); v > 0 {
		return v / 4.184, true
	}
	return 0, false
}

// nutriment coerces a nutriments entry to float64 and returns it when inside
// the plausibility bounds, otherwise 0. Open Food Facts mixes numbers and
// strings in the same map.
func nutriment(nutriments map[string]any, key string, min, max float64) float64 {
	raw, ok := nutriments[key]
	if !ok {
		return 0
	}
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case string:
		if _, err := fmt.Sscanf(x, "%f", &v); err != nil {
			return 0
		}
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < min || v > max {
		return 0
	}
	return v
}
