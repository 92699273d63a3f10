package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"hexashop/internal/model"
	"hexashop/internal/repository"

	"github.com/rs/zerolog"
)

// Loader reads promo code definitions from a seed source. Seed files are
// gzipped JSON lines, one promo definition per line.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.PromoCode, error)
}

// fileLoader implements Loader for gzipped files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based promo seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-loader").Logger(),
	}
}

// Load reads a gzipped promo seed file.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.PromoCode, error) {
	l.logger.Info().Str("file", path).Msg("loading promo seed file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open promo seed file")
		return nil, fmt.Errorf("failed to open promo seed file %s: %w", path, err)
	}
	defer file.Close()

	promos, err := decodeSeed(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode promo seed file %s: %w", path, err)
	}

	l.logger.Info().Str("file", path).Int("count", len(promos)).Msg("promo seed file loaded")
	return promos, nil
}

// seedPromo is the on-disk shape of one seed line.
type seedPromo struct {
	Code           string   `json:"code"`
	DiscountType   string   `json:"discount_type"`
	DiscountValue  float64  `json:"discount_value"`
	MinOrderAmount float64  `json:"min_order_amount"`
	MaxDiscount    *float64 `json:"max_discount"`
	UsageLimit     *int     `json:"usage_limit"`
	ValidFrom      string   `json:"valid_from"`
	ValidUntil     string   `json:"valid_until"`
	IsActive       *bool    `json:"is_active"`
}

// decodeSeed reads gzipped JSON lines into promo definitions, skipping blank
// lines and validating each entry.
func decodeSeed(ctx context.Context, r io.Reader) ([]model.PromoCode, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	var promos []model.PromoCode
	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var s seedPromo
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, fmt.Errorf("invalid promo definition on line %d: %w", line, err)
		}

		p, err := s.toModel()
		if err != nil {
			return nil, fmt.Errorf("invalid promo definition on line %d: %w", line, err)
		}
		promos = append(promos, *p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read promo seed: %w", err)
	}

	return promos, nil
}

func (s *seedPromo) toModel() (*model.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(s.Code))
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	if s.DiscountType != model.DiscountTypePercentage && s.DiscountType != model.DiscountTypeFixed {
		return nil, fmt.Errorf("discount type must be %q or %q", model.DiscountTypePercentage, model.DiscountTypeFixed)
	}
	if s.DiscountValue <= 0 {
		return nil, fmt.Errorf("discount value must be positive")
	}
	if s.DiscountType == model.DiscountTypePercentage && s.DiscountValue > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}

	validFrom, err := time.Parse(time.RFC3339, s.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid valid_from: %w", err)
	}
	validUntil, err := time.Parse(time.RFC3339, s.ValidUntil)
	if err != nil {
		return nil, fmt.Errorf("invalid valid_until: %w", err)
	}
	if !validUntil.After(validFrom) {
		return nil, fmt.Errorf("valid_until must be after valid_from")
	}

	active := true
	if s.IsActive != nil {
		active = *s.IsActive
	}

	return &model.PromoCode{
		Code:           code,
		DiscountType:   s.DiscountType,
		DiscountValue:  s.DiscountValue,
		MinOrderAmount: s.MinOrderAmount,
		MaxDiscount:    s.MaxDiscount,
		UsageLimit:     s.UsageLimit,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		IsActive:       active,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Seed loads every configured seed source and upserts the definitions by
// code. Existing used_count values are preserved by the upsert.
func Seed(ctx context.Context, loader Loader, paths []string, repo repository.PromoRepository, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "promo-seeder").Logger()

	total := 0
	for _, path := range paths {
		promos, err := loader.Load(ctx, path)
		if err != nil {
			return err
		}
		for i := range promos {
			if err := repo.Upsert(ctx, &promos[i]); err != nil {
				return fmt.Errorf("failed to seed promo %s: %w", promos[i].Code, err)
			}
		}
		total += len(promos)
	}

	logger.Info().Int("count", total).Msg("promo codes seeded")
	return nil
}
