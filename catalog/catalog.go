// Package catalog holds the eyewear and garment products offered by the try-on
// and preloads their images.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Juan-Cwq/aura"
)

// Eyewear is a pair of glasses rendered over the eyes.
type Eyewear struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	// Scale adjusts the width derived from the interpupillary distance.
	Scale float64 `json:"scale"`
}

// Garment is a clothing item sent to the virtual try-on service.
type Garment struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	ImageURL string               `json:"image_url"`
	Color    string               `json:"color"`
	Category aura.GarmentCategory `json:"category,omitempty"`
	Type     string               `json:"type,omitempty"`
}

// Catalog lists the products.
type Catalog struct {
	Eyewear  []Eyewear `json:"eyewear"`
	Garments []Garment `json:"garments"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Eyewear: []Eyewear{
			{ID: "classic-black", Name: "Classic Black", ImageURL: "assets/eyewear/classic-black.png", Scale: 1.0},
			{ID: "aviator-gold", Name: "Aviator Gold", ImageURL: "assets/eyewear/aviator-gold.png", Scale: 1.1},
			{ID: "round-tortoise", Name: "Round Tortoise", ImageURL: "assets/eyewear/round-tortoise.png", Scale: 0.95},
			{ID: "cat-eye-red", Name: "Cat Eye Red", ImageURL: "assets/eyewear/cat-eye-red.png", Scale: 1.05},
		},
		Garments: []Garment{
			{ID: "denim-jacket", Name: "Denim Jacket", ImageURL: "assets/garments/denim-jacket.png", Color: "#3B5B8C", Category: aura.UpperBody, Type: "jacket"},
			{ID: "white-tee", Name: "White T-Shirt", ImageURL: "assets/garments/white-tee.png", Color: "#F5F5F5", Category: aura.UpperBody, Type: "shirt"},
			{ID: "black-jeans", Name: "Black Jeans", ImageURL: "assets/garments/black-jeans.png", Color: "#1C1C1C", Category: aura.LowerBody, Type: "pants"},
			{ID: "summer-dress", Name: "Summer Dress", ImageURL: "assets/garments/summer-dress.png", Color: "#E8A89A", Category: aura.Dresses, Type: "dress"},
		},
	}
}

// Load decodes a JSON catalog. Missing scales and categories get their default values.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("could not decode the catalog: %w", err)
	}

	seen := make(map[string]bool)
	for i := range c.Eyewear {
		e := &c.Eyewear[i]
		if e.ID == "" || seen[e.ID] {
			return nil, fmt.Errorf("invalid or duplicate eyewear id %q", e.ID)
		}
		seen[e.ID] = true
		if e.Scale <= 0 {
			e.Scale = 1
		}
	}
	for i := range c.Garments {
		g := &c.Garments[i]
		if g.ID == "" || seen[g.ID] {
			return nil, fmt.Errorf("invalid or duplicate garment id %q", g.ID)
		}
		seen[g.ID] = true
		if g.Category == "" {
			g.Category = aura.UpperBody
		}
		if _, err := aura.ParseGarmentCategory(string(g.Category)); err != nil {
			return nil, fmt.Errorf("garment %s: %w", g.ID, err)
		}
	}
	return &c, nil
}

// LoadFile reads the catalog from a JSON file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open the catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// FindEyewear returns the eyewear with the given id.
func (c *Catalog) FindEyewear(id string) (Eyewear, bool) {
	for _, e := range c.Eyewear {
		if e.ID == id {
			return e, true
		}
	}
	return Eyewear{}, false
}

// FindGarment returns the garment with the given id.
func (c *Catalog) FindGarment(id string) (Garment, bool) {
	for _, g := range c.Garments {
		if g.ID == id {
			return g, true
		}
	}
	return Garment{}, false
}

// Assets returns every image referenced by the catalog, keyed by product id.
func (c *Catalog) Assets() []Asset {
	assets := make([]Asset, 0, len(c.Eyewear)+len(c.Garments))
	for _, e := range c.Eyewear {
		assets = append(assets, Asset{ID: e.ID, Source: e.ImageURL})
	}
	for _, g := range c.Garments {
		assets = append(assets, Asset{ID: g.ID, Source: g.ImageURL})
	}
	return assets
}
