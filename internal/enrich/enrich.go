// Package enrich joins the normalized product table against the
// composition table on the normalized name key and computes the derived
// nutrition indicators.
package enrich

import (
	"fmt"
	"strings"

	"nutriscan/internal/table"
)

// Column names added by this stage.
const (
	JoinKeyColumn       = "join_key"
	EnergyDensityColumn = "energy_density"
	ProteinRatioColumn  = "protein_ratio"

	energyColumn  = "energy_kcal_100g"
	proteinColumn = "proteins_100g"
)

type Options struct {
	// Suffixes applied to both sides of a column name collision.
	ProductSuffix     string
	CompositionSuffix string

	// DedupMatches keeps a single composition match per key (lowest
	// food code) instead of fanning out. Off by default: entries with
	// identical normalized names are legitimately ambiguous and left
	// for downstream disambiguation.
	DedupMatches bool
	// CodeColumn is the composition identifier used by DedupMatches.
	CodeColumn string
}

func DefaultOptions() Options {
	return Options{
		ProductSuffix:     "_off",
		CompositionSuffix: "_ciqual",
		CodeColumn:        "alim_code",
	}
}

// Join performs a left-outer join of products against composition on the
// JoinKey of their name columns. Every product row appears at least once;
// multiple composition rows sharing a key fan out to multiple output rows.
func Join(products, composition *table.Table, productName, compositionName string, opts Options) (*table.Table, error) {
	if !products.HasColumn(productName) {
		return nil, fmt.Errorf("product table lacks name column %q", productName)
	}
	if !composition.HasColumn(compositionName) {
		return nil, fmt.Errorf("composition table lacks name column %q", compositionName)
	}

	pCols := products.Columns()
	cCols := composition.Columns()
	collide := make(map[string]bool)
	inProduct := make(map[string]bool, len(pCols))
	for _, c := range pCols {
		inProduct[c] = true
	}
	for _, c := range cCols {
		if inProduct[c] {
			collide[c] = true
		}
	}

	outCols := make([]string, 0, len(pCols)+len(cCols)+3)
	for _, c := range pCols {
		if collide[c] {
			c += opts.ProductSuffix
		}
		outCols = append(outCols, c)
	}
	for _, c := range cCols {
		if collide[c] {
			c += opts.CompositionSuffix
		}
		outCols = append(outCols, c)
	}
	outCols = append(outCols, JoinKeyColumn, EnergyDensityColumn, ProteinRatioColumn)
	out := table.New(outCols)

	matches := compositionIndex(composition, compositionName, opts)

	for i := 0; i < products.NumRows(); i++ {
		key := JoinKey(products.Get(i, productName).Text())
		energy := products.Get(i, energyColumn)
		protein := products.Get(i, proteinColumn)

		rows := matches[key]
		if len(rows) == 0 {
			appendJoined(out, products.Row(i), nil, len(cCols), key, energy, protein)
			continue
		}
		for _, j := range rows {
			appendJoined(out, products.Row(i), composition.Row(j), len(cCols), key, energy, protein)
		}
	}
	return out, nil
}

// compositionIndex groups composition row indices by join key, preserving
// row order within a key.
func compositionIndex(composition *table.Table, nameCol string, opts Options) map[string][]int {
	idx := make(map[string][]int)
	for j := 0; j < composition.NumRows(); j++ {
		key := JoinKey(composition.Get(j, nameCol).Text())
		idx[key] = append(idx[key], j)
	}
	if !opts.DedupMatches {
		return idx
	}
	for key, rows := range idx {
		if len(rows) < 2 {
			continue
		}
		best := rows[0]
		bestCode := composition.Get(best, opts.CodeColumn).Text()
		for _, j := range rows[1:] {
			if code := composition.Get(j, opts.CodeColumn).Text(); compareCodes(code, bestCode) < 0 {
				best, bestCode = j, code
			}
		}
		idx[key] = []int{best}
	}
	return idx
}

// compareCodes orders numeric codes numerically and everything else
// lexically.
func compareCodes(a, b string) int {
	if isDigits(a) && isDigits(b) && len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func appendJoined(out *table.Table, productRow, compRow []table.Value, compWidth int, key string, energy, protein table.Value) {
	row := make([]table.Value, 0, len(productRow)+compWidth+3)
	row = append(row, productRow...)
	if compRow == nil {
		for i := 0; i < compWidth; i++ {
			row = append(row, table.Null())
		}
	} else {
		row = append(row, compRow...)
	}
	row = append(row, table.String(key), energyDensity(energy), proteinRatio(energy, protein))
	_ = out.Append(row)
}

// energyDensity is currently a pass-through of the product-side energy per
// 100g. A composition-side fallback for missing product energy is a
// possible extension, not implemented.
func energyDensity(energy table.Value) table.Value { return energy }

// proteinRatio is protein-per-100g over energy-per-100g, defined only when
// energy is present and strictly positive.
func proteinRatio(energy, protein table.Value) table.Value {
	e, ok := energy.Float()
	if !ok || e <= 0 {
		return table.Null()
	}
	p, ok := protein.Float()
	if !ok {
		return table.Null()
	}
	return table.Number(p / e)
}
