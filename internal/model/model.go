// Package model defines the typed row shapes crossing stage boundaries.
package model

import (
	"github.com/tidwall/gjson"

	"nutriscan/internal/table"
)

// ProductColumns is the fixed raw snapshot shape for product rows, in
// persisted column order. `code` is the dedup identifier.
var ProductColumns = []string{
	"code", "product_name", "brands", "categories",
	"nutriscore_grade", "nova_group", "ecoscore_grade",
	"energy_kcal_100g", "fat_100g", "saturated_fat_100g",
	"carbohydrates_100g", "sugars_100g", "fiber_100g",
	"proteins_100g", "salt_100g",
	"ingredients_text", "allergens", "additives_n", "image_url",
}

// RawProduct is one source-API product, flattened. Nutrient fields that
// the payload omits stay null, never zero.
type RawProduct struct {
	Code            string
	ProductName     string
	Brands          string
	Categories      string
	NutriscoreGrade string
	NovaGroup       table.Value
	EcoscoreGrade   string

	EnergyKcal100g    table.Value
	Fat100g           table.Value
	SaturatedFat100g  table.Value
	Carbohydrates100g table.Value
	Sugars100g        table.Value
	Fiber100g         table.Value
	Proteins100g      table.Value
	Salt100g          table.Value

	IngredientsText string
	Allergens       string
	AdditivesN      table.Value
	ImageURL        string
}

// FromSearchResult flattens one raw search-API product object. Field
// fallbacks follow the source conventions: French ingredients text over
// the generic one, front image over the generic image.
func FromSearchResult(p gjson.Result) RawProduct {
	ingredients := p.Get("ingredients_text_fr").String()
	if ingredients == "" {
		ingredients = p.Get("ingredients_text").String()
	}
	image := p.Get("image_front_url").String()
	if image == "" {
		image = p.Get("image_url").String()
	}
	return RawProduct{
		Code:            p.Get("code").String(),
		ProductName:     p.Get("product_name").String(),
		Brands:          p.Get("brands").String(),
		Categories:      p.Get("categories").String(),
		NutriscoreGrade: p.Get("nutriscore_grade").String(),
		NovaGroup:       numberOrNull(p.Get("nova_group")),
		EcoscoreGrade:   p.Get("ecoscore_grade").String(),

		EnergyKcal100g:    numberOrNull(p.Get("nutriments.energy-kcal_100g")),
		Fat100g:           numberOrNull(p.Get("nutriments.fat_100g")),
		SaturatedFat100g:  numberOrNull(p.Get("nutriments.saturated-fat_100g")),
		Carbohydrates100g: numberOrNull(p.Get("nutriments.carbohydrates_100g")),
		Sugars100g:        numberOrNull(p.Get("nutriments.sugars_100g")),
		Fiber100g:         numberOrNull(p.Get("nutriments.fiber_100g")),
		Proteins100g:      numberOrNull(p.Get("nutriments.proteins_100g")),
		Salt100g:          numberOrNull(p.Get("nutriments.salt_100g")),

		IngredientsText: ingredients,
		Allergens:       p.Get("allergens").String(),
		AdditivesN:      numberOrNull(p.Get("additives_n")),
		ImageURL:        image,
	}
}

// numberOrNull coerces a payload field to a numeric cell. Strings that
// parse as numbers are accepted; anything else is null.
func numberOrNull(r gjson.Result) table.Value {
	if !r.Exists() {
		return table.Null()
	}
	switch r.Type {
	case gjson.Number:
		return table.Number(r.Float())
	case gjson.String:
		return table.CoerceNumber(table.String(r.Str))
	default:
		return table.Null()
	}
}

// Row projects the record into the ProductColumns order.
func (p RawProduct) Row() []table.Value {
	return []table.Value{
		textCell(p.Code), textCell(p.ProductName), textCell(p.Brands), textCell(p.Categories),
		textCell(p.NutriscoreGrade), p.NovaGroup, textCell(p.EcoscoreGrade),
		p.EnergyKcal100g, p.Fat100g, p.SaturatedFat100g,
		p.Carbohydrates100g, p.Sugars100g, p.Fiber100g,
		p.Proteins100g, p.Salt100g,
		textCell(p.IngredientsText), textCell(p.Allergens), p.AdditivesN, textCell(p.ImageURL),
	}
}

func textCell(s string) table.Value {
	if s == "" {
		return table.Null()
	}
	return table.String(s)
}
