// Package source holds the clients for the two upstream datasets: the Open
// Food Facts search API and the CIQUAL composition workbook.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"nutriscan/internal/fetchcache"
	"nutriscan/internal/model"
)

// maxPageSize is the provider-defined cap on search page size.
const maxPageSize = 100

// OpenFoodFacts searches the product catalog API. A non-success HTTP
// status yields an empty result list, not an error; only transport
// failures surface as errors (and the ingest stage degrades those to empty
// per query).
type OpenFoodFacts struct {
	baseURL    string
	userAgent  string
	httpc      *http.Client
	cache      fetchcache.Store
	onCacheHit func()
}

type OFFOption func(*OpenFoodFacts)

// WithCache serves repeated searches from a local payload cache.
func WithCache(c fetchcache.Store, onHit func()) OFFOption {
	return func(o *OpenFoodFacts) {
		o.cache = c
		o.onCacheHit = onHit
	}
}

func WithHTTPClient(c *http.Client) OFFOption {
	return func(o *OpenFoodFacts) { o.httpc = c }
}

func NewOpenFoodFacts(baseURL, userAgent string, timeout time.Duration, opts ...OFFOption) *OpenFoodFacts {
	o := &OpenFoodFacts{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpc:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search returns raw product records for a query. limit is capped at the
// provider maximum.
func (o *OpenFoodFacts) Search(ctx context.Context, query string, limit int) ([]model.RawProduct, error) {
	if limit > maxPageSize {
		limit = maxPageSize
	}
	body, err := o.searchPayload(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []model.RawProduct{}, nil
	}
	products := gjson.GetBytes(body, "products").Array()
	return lo.Map(products, func(p gjson.Result, _ int) model.RawProduct {
		return model.FromSearchResult(p)
	}), nil
}

func (o *OpenFoodFacts) searchPayload(ctx context.Context, query string, limit int) ([]byte, error) {
	cacheKey := fmt.Sprintf("off:search:%s:%d", query, limit)
	if o.cache != nil {
		if b, ok := o.cache.Get(cacheKey); ok {
			if o.onCacheHit != nil {
				o.onCacheHit()
			}
			return b, nil
		}
	}

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("page_size", strconv.Itoa(limit))
	params.Set("json", "1")
	params.Set("action", "process")
	u := o.baseURL + "/cgi/search.pl?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", o.userAgent)

	resp, err := o.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// Contract: non-success status means zero results, never an error.
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if o.cache != nil {
		_ = o.cache.Put(cacheKey, body) // cache is best effort
	}
	return body, nil
}
