package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"hexashop/internal/cache"
	"hexashop/internal/config"
	"hexashop/internal/inventory"
	"hexashop/internal/model"
	"hexashop/internal/promo"
	"hexashop/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Algerian mobile numbers: +213 or 0 prefix, operator digit 5-7, 8 more digits.
var phonePattern = regexp.MustCompile(`^(\+213|0)[5-7][0-9]{8}$`)

// orderService implements OrderService. It is the transaction coordinator:
// one CreateOrder call walks Validating -> Reserving -> Pricing ->
// Persisting -> Committed, with a bounded retry loop around the transaction
// for transient storage contention.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	promoRepo   repository.PromoRepository
	ledger      inventory.Ledger
	validator   promo.Validator
	bus         OrderCache
	sem         *semaphore.Weighted
	cfg         config.OrdersConfig
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	promoRepo repository.PromoRepository,
	ledger inventory.Ledger,
	validator promo.Validator,
	bus OrderCache,
	cfg config.OrdersConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		promoRepo:   promoRepo,
		ledger:      ledger,
		validator:   validator,
		bus:         bus,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		cfg:         cfg,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder places an order. Validation failures are terminal; transient
// storage contention retries the whole attempt from reservation up to the
// configured budget; on commit the stale cache entries are invalidated.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Bounded worker pool: at most cfg.MaxConcurrent order transactions in
	// flight at once.
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire order slot: %w", err)
	}
	defer s.sem.Release(1)

	var order *model.Order
	attempts := 0

	operation := func() error {
		attempts++
		o, err := s.attempt(ctx, req)
		if err != nil {
			if isRetryable(err) {
				s.logger.Warn().
					Err(err).
					Int("attempt", attempts).
					Msg("storage contention, retrying order transaction")
				return err
			}
			return backoff.Permanent(err)
		}
		order = o
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.RetryDelay), uint64(s.cfg.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		if isRetryable(err) {
			s.logger.Error().
				Err(err).
				Int("attempts", attempts).
				Msg("order transaction exhausted retry budget")
			return nil, model.ErrStorageBusy
		}
		return nil, err
	}

	// Stock changed; drop every catalogue view derived from it, plus the
	// buyer's cached order history. The commit already happened, so
	// invalidation must not be cut short by a caller hangup.
	bg := context.WithoutCancel(ctx)
	s.bus.InvalidateProductCache(bg)
	s.bus.Invalidate(bg, s.bus.BuildKey(cache.CategoryOrder, "phone", order.PhoneNumber))

	s.logger.Info().
		Str("order_id", order.ID).
		Int("item_count", len(order.Items)).
		Float64("total", order.Total).
		Int("attempts", attempts).
		Msg("order created successfully")

	return order, nil
}

// attempt runs one full transaction attempt: reserve every line item, price
// at reservation time, apply the promo, persist, commit. Any failure rolls
// the transaction back, releasing all reservations made in this attempt.
func (s *orderService) attempt(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Debug().Err(rbErr).Msg("transaction rollback")
			}
		}
	}()

	now := time.Now().UTC()

	// Reserving + Pricing: all-or-nothing across line items. A failure on a
	// later item rolls back the reservations of earlier ones with the
	// transaction.
	var total float64
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, ir := range req.Items {
		p, err := s.productRepo.GetByIDTx(ctx, tx, ir.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, model.NewProductNotFound(ir.ProductID)
		}

		if err := s.ledger.Reserve(ctx, tx, p.ID, ir.SelectedColor, ir.Quantity); err != nil {
			var de *model.DomainError
			if errors.As(err, &de) && de.Code == model.ErrCodeInsufficientStock {
				// Name the product, not its id, in the user-facing message.
				return nil, model.NewInsufficientStock(p.Title, ir.SelectedColor)
			}
			return nil, err
		}

		// Price at reservation time, not display time.
		price := s.ledger.CurrentPrice(p, now)
		total += price * float64(ir.Quantity)
		items = append(items, model.OrderItem{
			ProductID:     p.ID,
			ProductName:   p.Title,
			Quantity:      ir.Quantity,
			Price:         price,
			Color:         ir.Color,
			Image:         ir.Image,
			SelectedColor: ir.SelectedColor,
		})
	}
	total = model.Round2(total)

	// Promo application is non-fatal: a bad code must not lose the sale.
	if req.PromoCode != "" {
		res, err := s.validator.Validate(ctx, tx, req.PromoCode, total, now)
		switch {
		case err == nil:
			applied, incErr := s.promoRepo.IncrementUsage(ctx, tx, res.Promo.ID)
			if incErr != nil {
				return nil, incErr
			}
			if applied {
				total = model.Round2(total - res.Discount)
			} else {
				s.logger.Warn().
					Str("promo_code", res.Promo.Code).
					Msg("promo usage limit reached concurrently, order proceeds without discount")
			}
		case isPromoInvalid(err):
			s.logger.Warn().
				Str("promo_code", req.PromoCode).
				Str("reason", err.Error()).
				Msg("invalid promo code, order proceeds without discount")
		default:
			return nil, err
		}
	}

	order := &model.Order{
		ID:           newOrderID(),
		PhoneNumber:  strings.ReplaceAll(strings.TrimSpace(req.PhoneNumber), " ", ""),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Wilaya:       strings.TrimSpace(req.Wilaya),
		Address:      strings.TrimSpace(req.Address),
		Status:       model.OrderStatusPending,
		Total:        total,
		DeliveryUpdates: []model.DeliveryUpdate{
			{Date: now, Status: "ordered", Message: "Order received"},
		},
		CreatedAt: now,
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, err
	}

	// One atomic unit: stock decrements, order, items, promo usage.
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	committed = true

	return order, nil
}

// GetByPhone retrieves all orders for a phone number, newest first.
func (s *orderService) GetByPhone(ctx context.Context, phone string) ([]model.Order, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if !phonePattern.MatchString(normalized) {
		return nil, model.NewValidationError("Invalid phone format")
	}

	key := s.bus.BuildKey(cache.CategoryOrder, "phone", normalized)
	var cached []model.Order
	if s.bus.Get(ctx, key, &cached) {
		return cached, nil
	}

	orders, err := s.orderRepo.GetByPhone(ctx, normalized)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get orders by phone")
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	s.bus.Set(ctx, key, orders, s.bus.TTLFor(cache.CategoryOrder))
	return orders, nil
}

// validateOrderRequest runs the terminal, non-retried request checks.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidationError("order request is nil")
	}

	if strings.TrimSpace(req.PhoneNumber) == "" {
		return model.NewValidationError("Missing field: phoneNumber")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return model.NewValidationError("Missing field: customerName")
	}
	if strings.TrimSpace(req.Wilaya) == "" {
		return model.NewValidationError("Missing field: wilaya")
	}
	if strings.TrimSpace(req.Address) == "" {
		return model.NewValidationError("Missing field: address")
	}
	if len(req.Items) == 0 {
		return model.NewValidationError("Order must contain at least one item")
	}

	normalized := strings.ReplaceAll(strings.TrimSpace(req.PhoneNumber), " ", "")
	if !phonePattern.MatchString(normalized) {
		return model.NewValidationError("Invalid phone format")
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return model.NewValidationError("Item %d: product ID is required", i)
		}
		if item.Quantity <= 0 {
			return model.NewValidationError("Item %d: quantity must be greater than zero", i)
		}
		if strings.TrimSpace(item.SelectedColor) == "" {
			return model.NewValidationError("Color selection required for item %d", i)
		}
	}

	return nil
}

// newOrderID generates an order identifier with the storefront's ORD- prefix
// from UUID entropy. A primary-key collision is treated as retryable, which
// regenerates the id on the next attempt.
func newOrderID() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + hex[:10]
}

// isRetryable classifies transient storage contention: serialization
// failures, deadlocks, lock timeouts, and an order-id collision.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	case "23505":
		return pgErr.ConstraintName == "orders_pkey"
	}
	return false
}

func isPromoInvalid(err error) bool {
	var de *model.DomainError
	return errors.As(err, &de) && de.Code == model.ErrCodePromoInvalid
}
