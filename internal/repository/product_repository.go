package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hexashop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const productColumns = `id, title, price, brand, description, model, frame_shape, frame_material,
		frame_color, lenses, protection, dimensions, images, type,
		discount_price, discount_active, discount_start, discount_end, is_featured, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	db     DB
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db DB, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves the full catalogue.
func (r *productRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)
	return r.queryProducts(ctx, query)
}

// GetByCategory retrieves products for a catalogue model (Men/Women/Kids).
func (r *productRepository) GetByCategory(ctx context.Context, category string) ([]model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE model = $1 ORDER BY created_at DESC`, productColumns)
	return r.queryProducts(ctx, query, category)
}

// GetByBrand retrieves products whose brand matches, case-insensitively.
func (r *productRepository) GetByBrand(ctx context.Context, brand string) ([]model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE brand ILIKE $1 ORDER BY created_at DESC`, productColumns)
	return r.queryProducts(ctx, query, "%"+brand+"%")
}

// Search matches the query against title, brand and description.
func (r *productRepository) Search(ctx context.Context, searchQuery string) ([]model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products
		WHERE title ILIKE $1 OR brand ILIKE $1 OR description ILIKE $1
		ORDER BY created_at DESC`, productColumns)
	return r.queryProducts(ctx, query, "%"+searchQuery+"%")
}

// GetFeatured retrieves featured products, newest first.
func (r *productRepository) GetFeatured(ctx context.Context) ([]model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE is_featured = TRUE ORDER BY created_at DESC`, productColumns)
	return r.queryProducts(ctx, query)
}

// GetByID retrieves a single product with its color variants.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx retrieves a single product inside the provided transaction.
func (r *productRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error) {
	return r.getByID(ctx, tx, id)
}

func (r *productRepository) getByID(ctx context.Context, q querier, id string) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p model.Product
	var images []byte
	err := q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Price, &p.Brand, &p.Description, &p.Model,
		&p.FrameShape, &p.FrameMaterial, &p.FrameColor, &p.Lenses, &p.Protection, &p.Dimensions,
		&images, &p.Type,
		&p.DiscountPrice, &p.DiscountActive, &p.DiscountStart, &p.DiscountEnd,
		&p.IsFeatured, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	p.Images = images

	variants, err := r.loadVariants(ctx, q, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.AvailableColors = variants[p.ID]

	return &p, nil
}

// queryProducts runs a multi-row product query and attaches variants in a
// single follow-up query.
func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	var ids []string
	for rows.Next() {
		var p model.Product
		var images []byte
		err := rows.Scan(
			&p.ID, &p.Title, &p.Price, &p.Brand, &p.Description, &p.Model,
			&p.FrameShape, &p.FrameMaterial, &p.FrameColor, &p.Lenses, &p.Protection, &p.Dimensions,
			&images, &p.Type,
			&p.DiscountPrice, &p.DiscountActive, &p.DiscountStart, &p.DiscountEnd,
			&p.IsFeatured, &p.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Images = images
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if len(ids) == 0 {
		return products, nil
	}

	variants, err := r.loadVariants(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].AvailableColors = variants[products[i].ID]
	}

	return products, nil
}

// loadVariants fetches color variants for the given product ids, keyed by
// product id and ordered by position.
func (r *productRepository) loadVariants(ctx context.Context, q querier, ids []string) (map[string][]model.ColorVariant, error) {
	query := `
		SELECT product_id, name, images, stock
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, position
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query product variants")
		return nil, fmt.Errorf("failed to query product variants: %w", err)
	}
	defer rows.Close()

	variants := make(map[string][]model.ColorVariant, len(ids))
	for rows.Next() {
		var productID string
		var v model.ColorVariant
		var images []byte
		if err := rows.Scan(&productID, &v.Name, &images, &v.Stock); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan variant row")
			return nil, fmt.Errorf("failed to scan product variant: %w", err)
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &v.Images); err != nil {
				return nil, fmt.Errorf("failed to decode variant images: %w", err)
			}
		}
		variants[productID] = append(variants[productID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product variants: %w", err)
	}

	return variants, nil
}

// Create inserts a product and its variants atomically.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO products (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, productColumns)

	_, err = tx.Exec(ctx, query,
		p.ID, p.Title, p.Price, p.Brand, p.Description, p.Model,
		p.FrameShape, p.FrameMaterial, p.FrameColor, p.Lenses, p.Protection, p.Dimensions,
		rawOrEmptyObject(p.Images), p.Type,
		p.DiscountPrice, p.DiscountActive, p.DiscountStart, p.DiscountEnd,
		p.IsFeatured, p.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to insert product")
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if err := r.insertVariants(ctx, tx, p.ID, p.AvailableColors); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product insert: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Msg("product created")
	return nil
}

// Update rewrites a product row and replaces its variants atomically.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE products SET
			title = $2, price = $3, brand = $4, description = $5, model = $6,
			frame_shape = $7, frame_material = $8, frame_color = $9, lenses = $10,
			protection = $11, dimensions = $12, images = $13, type = $14,
			discount_price = $15, discount_active = $16, discount_start = $17,
			discount_end = $18, is_featured = $19
		WHERE id = $1
	`

	ct, err := tx.Exec(ctx, query,
		p.ID, p.Title, p.Price, p.Brand, p.Description, p.Model,
		p.FrameShape, p.FrameMaterial, p.FrameColor, p.Lenses, p.Protection, p.Dimensions,
		rawOrEmptyObject(p.Images), p.Type,
		p.DiscountPrice, p.DiscountActive, p.DiscountStart, p.DiscountEnd,
		p.IsFeatured,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear product variants: %w", err)
	}
	if err := r.insertVariants(ctx, tx, p.ID, p.AvailableColors); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Msg("product updated")
	return nil
}

// Delete removes a product and its variants.
func (r *productRepository) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete product variants: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit product delete: %w", err)
	}

	r.logger.Debug().Str("product_id", id).Msg("product deleted")
	return true, nil
}

func (r *productRepository) insertVariants(ctx context.Context, tx pgx.Tx, productID string, variants []model.ColorVariant) error {
	query := `
		INSERT INTO product_variants (product_id, name, images, stock, position)
		VALUES ($1, $2, $3, $4, $5)
	`

	for i, v := range variants {
		images, err := json.Marshal(v.Images)
		if err != nil {
			return fmt.Errorf("failed to encode variant images: %w", err)
		}
		if _, err := tx.Exec(ctx, query, productID, v.Name, images, v.Stock, i); err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", productID).
				Str("color", v.Name).
				Msg("failed to insert product variant")
			return fmt.Errorf("failed to insert product variant: %w", err)
		}
	}

	return nil
}

// rawOrEmptyObject keeps the images column NOT NULL friendly.
func rawOrEmptyObject(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte(`{}`)
	}
	return raw
}
