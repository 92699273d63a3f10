package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hexashop/internal/cache"
	"hexashop/internal/model"
	"hexashop/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Known storefront brands, keyed by their URL slug.
var brandMap = map[string]string{
	"prada":    "Prada",
	"boss":     "Hugo Boss",
	"rayban":   "Ray-Ban",
	"marbella": "Marbella",
	"gucci":    "Gucci",
	"versace":  "Versace",
	"oakley":   "Oakley",
	"polar":    "Polar",
}

var validCategories = map[string]string{
	"men":   model.ModelMen,
	"women": model.ModelWomen,
	"kids":  model.ModelKids,
}

// productService implements ProductService with a read-through cache in
// front of the repository. Every successful mutation sweeps the product
// cache namespaces.
type productService struct {
	repo   repository.ProductRepository
	bus    *cache.Bus
	logger zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, bus *cache.Bus, logger zerolog.Logger) ProductService {
	return &productService{
		repo:   repo,
		bus:    bus,
		logger: logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves the full catalogue through the cache.
func (s *productService) GetAll(ctx context.Context) ([]model.Product, error) {
	key := s.bus.BuildKey(cache.CategoryProduct, "all")

	var cached []model.Product
	if s.bus.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.bus.Set(ctx, key, products, s.bus.TTLFor(cache.CategoryProduct))
	return products, nil
}

// GetByID retrieves a single product. Not cached: detail reads want fresh
// stock numbers.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" || len(id) > 50 {
		return nil, model.NewValidationError("Invalid product ID")
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

// GetByCategory retrieves products for a category through the cache.
func (s *productService) GetByCategory(ctx context.Context, category string) ([]model.Product, error) {
	if category == "" || len(category) > 50 {
		return nil, model.NewValidationError("Invalid category")
	}

	categoryModel, ok := validCategories[strings.ToLower(category)]
	if !ok {
		return nil, model.NewValidationError("Invalid category")
	}

	key := s.bus.BuildKey(cache.CategoryCategory, category)

	var cached []model.Product
	if s.bus.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetByCategory(ctx, categoryModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by category: %w", err)
	}

	s.bus.Set(ctx, key, products, s.bus.TTLFor(cache.CategoryCategory))
	return products, nil
}

// GetByBrand retrieves products by brand through the cache.
func (s *productService) GetByBrand(ctx context.Context, brand string) ([]model.Product, error) {
	if brand == "" || len(brand) > 50 {
		return nil, model.NewValidationError("Invalid brand")
	}

	brandName := brand
	if mapped, ok := brandMap[strings.ToLower(brand)]; ok {
		brandName = mapped
	}

	key := s.bus.BuildKey(cache.CategoryBrand, brandName)

	var cached []model.Product
	if s.bus.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetByBrand(ctx, brandName)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by brand: %w", err)
	}

	s.bus.Set(ctx, key, products, s.bus.TTLFor(cache.CategoryBrand))
	return products, nil
}

// Search matches products against a free-text query through the cache.
func (s *productService) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Product{}, nil
	}
	if len(query) > 100 {
		return nil, model.NewValidationError("Search query too long")
	}

	key := s.bus.BuildKey(cache.CategorySearch, query)

	var cached []model.Product
	if s.bus.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	s.bus.Set(ctx, key, products, s.bus.TTLFor(cache.CategorySearch))
	return products, nil
}

// GetFeatured retrieves featured products through the cache.
func (s *productService) GetFeatured(ctx context.Context) ([]model.Product, error) {
	key := s.bus.BuildKey(cache.CategoryFeatured, "homepage")

	var cached []model.Product
	if s.bus.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetFeatured(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get featured products: %w", err)
	}

	s.bus.Set(ctx, key, products, s.bus.TTLFor(cache.CategoryFeatured))
	return products, nil
}

// Create validates and inserts a new product.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	p, err := buildProduct(req)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, p); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, model.NewValidationError("Product with this ID already exists")
		}
		return nil, err
	}

	s.bus.InvalidateProductCache(ctx)
	s.logger.Info().Str("product_id", p.ID).Msg("product created")
	return p, nil
}

// Update validates and rewrites an existing product.
func (s *productService) Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.ErrProductNotFound
	}

	applyProductRequest(existing, req)
	if err := validateProduct(existing); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.bus.InvalidateProductCache(ctx)
	s.logger.Info().Str("product_id", id).Msg("product updated")
	return existing, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrProductNotFound
	}

	s.bus.InvalidateProductCache(ctx)
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// buildProduct validates a create request and assembles the product.
func buildProduct(req *model.ProductRequest) (*model.Product, error) {
	if req == nil {
		return nil, model.NewValidationError("product request is nil")
	}

	required := []struct {
		name  string
		value string
	}{
		{"id", req.ID},
		{"title", req.Title},
		{"brand", req.Brand},
		{"description", req.Description},
		{"model", req.Model},
		{"type", req.Type},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, model.NewValidationError("Missing required field: %s", f.name)
		}
	}
	if req.Price == nil {
		return nil, model.NewValidationError("Missing required field: price")
	}

	p := &model.Product{
		ID:            req.ID,
		Title:         req.Title,
		Price:         *req.Price,
		Brand:         req.Brand,
		Description:   req.Description,
		Model:         req.Model,
		FrameShape:    req.FrameShape,
		FrameMaterial: req.FrameMaterial,
		FrameColor:    req.FrameColor,
		Lenses:        req.Lenses,
		Protection:    req.Protection,
		Dimensions:    req.Dimensions,
		Images:        req.Images,
		Type:          req.Type,
		DiscountPrice: req.DiscountPrice,
	}
	if req.DiscountActive != nil {
		p.DiscountActive = *req.DiscountActive
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}

	var err error
	if p.DiscountStart, err = parseOptionalTime(req.DiscountStart); err != nil {
		return nil, model.NewValidationError("Invalid discount start date format")
	}
	if p.DiscountEnd, err = parseOptionalTime(req.DiscountEnd); err != nil {
		return nil, model.NewValidationError("Invalid discount end date format")
	}
	p.AvailableColors = req.AvailableColors

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	return p, nil
}

// applyProductRequest overlays the non-nil fields of an update request.
func applyProductRequest(p *model.Product, req *model.ProductRequest) {
	if req.Title != "" {
		p.Title = req.Title
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Brand != "" {
		p.Brand = req.Brand
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Model != "" {
		p.Model = req.Model
	}
	if req.FrameShape != "" {
		p.FrameShape = req.FrameShape
	}
	if req.FrameMaterial != "" {
		p.FrameMaterial = req.FrameMaterial
	}
	if req.FrameColor != "" {
		p.FrameColor = req.FrameColor
	}
	if req.Lenses != "" {
		p.Lenses = req.Lenses
	}
	if req.Protection != "" {
		p.Protection = req.Protection
	}
	if req.Dimensions != "" {
		p.Dimensions = req.Dimensions
	}
	if len(req.Images) > 0 {
		p.Images = req.Images
	}
	if req.Type != "" {
		p.Type = req.Type
	}
	if req.DiscountPrice != nil {
		p.DiscountPrice = req.DiscountPrice
	}
	if req.DiscountActive != nil {
		p.DiscountActive = *req.DiscountActive
	}
	if req.DiscountStart != nil {
		if t, err := parseOptionalTime(req.DiscountStart); err == nil {
			p.DiscountStart = t
		}
	}
	if req.DiscountEnd != nil {
		if t, err := parseOptionalTime(req.DiscountEnd); err == nil {
			p.DiscountEnd = t
		}
	}
	if req.AvailableColors != nil {
		p.AvailableColors = req.AvailableColors
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
}

// validateProduct enforces the catalogue invariants.
func validateProduct(p *model.Product) error {
	if len(p.ID) > 50 {
		return model.NewValidationError("Product ID too long")
	}
	if len(p.Title) > 200 {
		return model.NewValidationError("Product title too long")
	}
	if len(p.Brand) > 100 {
		return model.NewValidationError("Brand name too long")
	}
	if len(p.Description) > 1000 {
		return model.NewValidationError("Description too long")
	}
	if p.Price < 0 {
		return model.NewValidationError("Price cannot be negative")
	}

	if p.DiscountPrice != nil {
		if *p.DiscountPrice < 0 {
			return model.NewValidationError("Discount price cannot be negative")
		}
		if *p.DiscountPrice >= p.Price {
			return model.NewValidationError("Discount price must be less than regular price")
		}
	}
	if p.DiscountStart != nil && p.DiscountEnd != nil && !p.DiscountEnd.After(*p.DiscountStart) {
		return model.NewValidationError("Discount end date must be after start date")
	}

	if len(p.AvailableColors) == 0 {
		return model.NewValidationError("At least one color with stock information is required")
	}
	for _, c := range p.AvailableColors {
		if strings.TrimSpace(c.Name) == "" {
			return model.NewValidationError("Each color must have a name")
		}
		if c.Stock < 0 {
			return model.NewValidationError("Color stock must be a non-negative integer")
		}
	}

	if len(p.Images) > 0 && !json.Valid(p.Images) {
		return model.NewValidationError("Invalid images payload")
	}

	return nil
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
