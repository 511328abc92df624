package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"nutriscan/internal/fetchcache"
	"nutriscan/internal/table"
)

// Ciqual downloads the national composition workbook and parses its first
// sheet into a table. The header row supplies the column set; all cells
// come back as string-or-null, typing happens in normalization.
type Ciqual struct {
	url   string
	httpc *http.Client
	cache fetchcache.Store
}

type CiqualOption func(*Ciqual)

func CiqualWithCache(c fetchcache.Store) CiqualOption {
	return func(q *Ciqual) { q.cache = c }
}

func CiqualWithHTTPClient(c *http.Client) CiqualOption {
	return func(q *Ciqual) { q.httpc = c }
}

func NewCiqual(url string, timeout time.Duration, opts ...CiqualOption) *Ciqual {
	q := &Ciqual{url: url, httpc: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Download fetches and parses the workbook. Any failure is returned to the
// caller; the ingest stage degrades it to an empty table with a warning.
func (q *Ciqual) Download(ctx context.Context) (*table.Table, error) {
	body, err := q.payload(ctx)
	if err != nil {
		return nil, err
	}
	return parseWorkbook(body)
}

func (q *Ciqual) payload(ctx context.Context) ([]byte, error) {
	const cacheKey = "ciqual:workbook"
	if q.cache != nil {
		if b, ok := q.cache.Get(cacheKey); ok {
			return b, nil
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := q.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download composition table: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download composition table: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if q.cache != nil {
		_ = q.cache.Put(cacheKey, body)
	}
	return body, nil
}

func parseWorkbook(body []byte) (*table.Table, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	t := table.New(rows[0])
	for _, rec := range rows[1:] {
		row := make([]table.Value, len(rec))
		for i, cell := range rec {
			if cell == "" {
				row[i] = table.Null()
			} else {
				row[i] = table.String(cell)
			}
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}
