package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
)

// Raw search-result shape as the product API returns it, so the fixture
// exercises the same flattening path as live data.
type fixtureProduct struct {
	Code            string             `json:"code"`
	ProductName     string             `json:"product_name"`
	Brands          string             `json:"brands"`
	Categories      string             `json:"categories"`
	NutriscoreGrade string             `json:"nutriscore_grade,omitempty"`
	NovaGroup       int                `json:"nova_group,omitempty"`
	EcoscoreGrade   string             `json:"ecoscore_grade,omitempty"`
	Nutriments      map[string]float64 `json:"nutriments"`
	IngredientsText string             `json:"ingredients_text,omitempty"`
	Allergens       string             `json:"allergens,omitempty"`
	AdditivesN      int                `json:"additives_n"`
	ImageURL        string             `json:"image_url,omitempty"`
}

func main() {
	var (
		count      int
		outputFile string
		seed       int64
	)
	flag.IntVar(&count, "count", 200, "number of products to generate")
	flag.StringVar(&outputFile, "output", "products.jsonl", "output file")
	flag.Int64Var(&seed, "seed", 1, "rng seed")
	flag.Parse()

	if err := generateProducts(count, outputFile, seed); err != nil {
		log.Fatalf("generation failed: %v", err)
	}
}

func generateProducts(count int, outputFile string, seed int64) error {
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	names := []string{"Chocolat noir", "Yaourt nature", "Biscuit sablé", "Pain complet", "Fromage râpé", "Jus d'orange", "Céréales muesli", "Pâtes complètes", "Sauce tomate", "Boisson gazeuse"}
	categories := []string{"chocolat", "yaourt", "biscuit", "pain", "fromage", "jus", "céréales", "pâtes", "sauce", "boisson"}
	brands := []string{"BioCoop", "Délices", "Ferme du Sud", "Maison Verte", "Saveurs & Co"}
	grades := []string{"a", "b", "c", "d", "e"}

	rng := rand.New(rand.NewSource(seed))
	enc := json.NewEncoder(file)
	for i := 0; i < count; i++ {
		k := rng.Intn(len(names))
		energy := 50 + rng.Float64()*500
		p := fixtureProduct{
			Code:            fmt.Sprintf("%013d", 3000000000000+int64(i)),
			ProductName:     fmt.Sprintf("%s %d", names[k], i%7),
			Brands:          brands[rng.Intn(len(brands))],
			Categories:      categories[k],
			NutriscoreGrade: grades[rng.Intn(len(grades))],
			NovaGroup:       1 + rng.Intn(4),
			EcoscoreGrade:   grades[rng.Intn(len(grades))],
			Nutriments: map[string]float64{
				"energy-kcal_100g":   round1(energy),
				"fat_100g":           round1(rng.Float64() * 30),
				"saturated-fat_100g": round1(rng.Float64() * 10),
				"carbohydrates_100g": round1(rng.Float64() * 60),
				"sugars_100g":        round1(rng.Float64() * 40),
				"fiber_100g":         round1(rng.Float64() * 10),
				"proteins_100g":      round1(rng.Float64() * 25),
				"salt_100g":          round1(rng.Float64() * 3),
			},
			IngredientsText: "ingrédients de démonstration",
			AdditivesN:      rng.Intn(6),
		}
		// Leave some records with gaps so normalization has something to do.
		if i%11 == 0 {
			p.NutriscoreGrade = ""
			delete(p.Nutriments, "fiber_100g")
		}
		if i%17 == 0 {
			p.ProductName = ""
		}
		if err := enc.Encode(&p); err != nil {
			return fmt.Errorf("encode product %d: %w", i+1, err)
		}
	}

	log.Printf("generated %d products to %s", count, outputFile)
	return nil
}

func round1(f float64) float64 { return float64(int(f*10)) / 10 }
