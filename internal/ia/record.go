// Package ia defines the contract between the pipeline and the
// explanation/recommendation collaborator. The pipeline guarantees that
// every record handed over carries the canonical field names with missing
// values encoded as JSON null — never absent, never partially typed.
// Prompting, model choice and conversation state live on the other side
// of this boundary.
package ia

import (
	"nutriscan/internal/table"
)

// Record is the canonical product payload. Numeric fields are pointers so
// a missing value serializes as null rather than a zero.
type Record struct {
	Code            string `json:"code"`
	ProductName     string `json:"product_name"`
	Brands          string `json:"brands"`
	Categories      string `json:"categories"`
	NutriscoreGrade string `json:"nutriscore_grade"`
	EcoscoreGrade   string `json:"ecoscore_grade"`

	NovaGroup         *float64 `json:"nova_group"`
	NutriscoreNumeric *float64 `json:"nutriscore_numeric"`
	EcoscoreNumeric   *float64 `json:"ecoscore_numeric"`

	EnergyKcal100g    *float64 `json:"energy_kcal_100g"`
	Fat100g           *float64 `json:"fat_100g"`
	SaturatedFat100g  *float64 `json:"saturated_fat_100g"`
	Carbohydrates100g *float64 `json:"carbohydrates_100g"`
	Sugars100g        *float64 `json:"sugars_100g"`
	Fiber100g         *float64 `json:"fiber_100g"`
	Proteins100g      *float64 `json:"proteins_100g"`
	Salt100g          *float64 `json:"salt_100g"`

	IngredientsText string   `json:"ingredients_text"`
	Allergens       string   `json:"allergens"`
	AdditivesN      *float64 `json:"additives_n"`
	ImageURL        string   `json:"image_url"`

	JoinKey       string   `json:"join_key"`
	EnergyDensity *float64 `json:"energy_density"`
	ProteinRatio  *float64 `json:"protein_ratio"`
}

// RecordFromRow maps row i of a normalized or enriched snapshot into the
// canonical record. Product-side columns that were suffixed during the
// join are found under their suffixed name as well.
func RecordFromRow(t *table.Table, i int) Record {
	return Record{
		Code:            text(t, i, "code"),
		ProductName:     text(t, i, "product_name"),
		Brands:          text(t, i, "brands"),
		Categories:      text(t, i, "categories"),
		NutriscoreGrade: text(t, i, "nutriscore_grade"),
		EcoscoreGrade:   text(t, i, "ecoscore_grade"),

		NovaGroup:         num(t, i, "nova_group"),
		NutriscoreNumeric: num(t, i, "nutriscore_numeric"),
		EcoscoreNumeric:   num(t, i, "ecoscore_numeric"),

		EnergyKcal100g:    num(t, i, "energy_kcal_100g"),
		Fat100g:           num(t, i, "fat_100g"),
		SaturatedFat100g:  num(t, i, "saturated_fat_100g"),
		Carbohydrates100g: num(t, i, "carbohydrates_100g"),
		Sugars100g:        num(t, i, "sugars_100g"),
		Fiber100g:         num(t, i, "fiber_100g"),
		Proteins100g:      num(t, i, "proteins_100g"),
		Salt100g:          num(t, i, "salt_100g"),

		IngredientsText: text(t, i, "ingredients_text"),
		Allergens:       text(t, i, "allergens"),
		AdditivesN:      num(t, i, "additives_n"),
		ImageURL:        text(t, i, "image_url"),

		JoinKey:       text(t, i, "join_key"),
		EnergyDensity: num(t, i, "energy_density"),
		ProteinRatio:  num(t, i, "protein_ratio"),
	}
}

// lookup resolves a product-side column that may carry the join's product
// suffix.
func lookup(t *table.Table, i int, col string) table.Value {
	if t.HasColumn(col) {
		return t.Get(i, col)
	}
	return t.Get(i, col+"_off")
}

func text(t *table.Table, i int, col string) string {
	return lookup(t, i, col).Text()
}

func num(t *table.Table, i int, col string) *float64 {
	if f, ok := lookup(t, i, col).Float(); ok {
		return &f
	}
	return nil
}
