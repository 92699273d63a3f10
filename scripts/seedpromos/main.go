package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// seedPromo mirrors the shape the API's seed loader reads: gzipped JSON
// lines, one promo definition per line.
type seedPromo struct {
	Code           string   `json:"code"`
	DiscountType   string   `json:"discount_type"`
	DiscountValue  float64  `json:"discount_value"`
	MinOrderAmount float64  `json:"min_order_amount"`
	MaxDiscount    *float64 `json:"max_discount,omitempty"`
	UsageLimit     *int     `json:"usage_limit,omitempty"`
	ValidFrom      string   `json:"valid_from"`
	ValidUntil     string   `json:"valid_until"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

// main writes a sample promo seed file under data/promos for local runs.
func main() {
	dataDir := "data/promos"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	from := time.Now().UTC().Truncate(time.Hour)
	until := from.AddDate(1, 0, 0)

	promos := []seedPromo{
		{
			Code:           "SAVE10",
			DiscountType:   "percentage",
			DiscountValue:  10,
			MinOrderAmount: 1000,
			MaxDiscount:    f64(500),
			ValidFrom:      from.Format(time.RFC3339),
			ValidUntil:     until.Format(time.RFC3339),
		},
		{
			Code:           "WELCOME500",
			DiscountType:   "fixed",
			DiscountValue:  500,
			MinOrderAmount: 2000,
			UsageLimit:     intp(100),
			ValidFrom:      from.Format(time.RFC3339),
			ValidUntil:     until.Format(time.RFC3339),
		},
		{
			Code:          "FLASH25",
			DiscountType:  "percentage",
			DiscountValue: 25,
			MaxDiscount:   f64(1500),
			UsageLimit:    intp(50),
			ValidFrom:     from.Format(time.RFC3339),
			ValidUntil:    from.AddDate(0, 0, 7).Format(time.RFC3339),
		},
	}

	filePath := filepath.Join(dataDir, "promocodes.gz")
	if err := writeSeedFile(filePath, promos); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d promo codes\n", filePath, len(promos))
}

func writeSeedFile(path string, promos []seedPromo) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	enc := json.NewEncoder(gz)
	for _, p := range promos {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}
