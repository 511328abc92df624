package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"nutriscan/internal/model"
)

// FileProducts reads search results from a JSONL fixture (one raw product
// object per line) instead of the network. A record matches a query when
// the query appears, case-folded, in its name or category list — enough
// for offline runs and tests.
type FileProducts struct {
	path string
}

func NewFileProducts(path string) *FileProducts {
	return &FileProducts{path: path}
}

func (f *FileProducts) Search(ctx context.Context, query string, limit int) ([]model.RawProduct, error) {
	if limit > maxPageSize {
		limit = maxPageSize
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.RawProduct{}
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		p := model.FromSearchResult(gjson.Parse(line))
		hay := strings.ToLower(p.ProductName + " " + p.Categories)
		if q != "" && !strings.Contains(hay, q) {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan fixture: %w", err)
	}
	return out, nil
}
