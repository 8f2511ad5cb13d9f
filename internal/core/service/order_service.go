package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
	"github.com/rl1809/storefront/internal/port"
)

const maxOrderNumberAttempts = 5

var DefaultPaymentMethods = []string{"COD", "CARD", "UPI", "NETBANKING"}

type OrderService struct {
	store          port.Store
	policy         pricing.Policy
	guard          *idempotencyGuard
	paymentMethods map[string]struct{}
	logger         *zap.Logger
	now            func() time.Time
	orderNumber    func(time.Time) string
}

func NewOrderService(store port.Store, cache port.CacheRepository, policy pricing.Policy, paymentMethods []string, logger *zap.Logger) *OrderService {
	methods := make(map[string]struct{}, len(paymentMethods))
	for _, m := range paymentMethods {
		methods[normalizePaymentMethod(m)] = struct{}{}
	}

	return &OrderService{
		store:          store,
		policy:         policy,
		guard:          newIdempotencyGuard(cache, logger),
		paymentMethods: methods,
		logger:         logger,
		now:            time.Now,
		orderNumber:    NewOrderNumber,
	}
}

// NewOrderNumber is a readable, timestamp-led number. The random suffix
// makes collisions unlikely; the storage unique index makes them impossible.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("NOV%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}

// CreateOrder freezes the user's cart into a PENDING order. The order
// insert, the stock decrement and the cart clear commit together or not at
// all.
func (s *OrderService) CreateOrder(ctx context.Context, principal domain.Principal, addressID, paymentMethod string) (*domain.Order, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	method := normalizePaymentMethod(paymentMethod)
	if _, ok := s.paymentMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentMethod, paymentMethod)
	}

	var order domain.Order
	err := s.guard.run(ctx, principal.UserID, "createOrder", func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
			address, err := repo.GetAddress(ctx, principal.UserID, addressID)
			if err != nil {
				return fmt.Errorf("get address: %w", err)
			}
			if address == nil {
				return fmt.Errorf("%w: %s", domain.ErrAddressNotFound, addressID)
			}

			cart, err := repo.LockCart(ctx, principal.UserID)
			if err != nil {
				return fmt.Errorf("lock cart: %w", err)
			}
			if cart == nil || cart.IsEmpty() {
				return domain.ErrEmptyCart
			}

			order, err = s.materialize(*cart, address.ID, method)
			if err != nil {
				return err
			}

			if err := decrementStock(ctx, repo, cart.Lines); err != nil {
				return err
			}
			if err := s.insertOrder(ctx, repo, &order); err != nil {
				return err
			}
			if err := repo.ClearCart(ctx, cart.ID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.logger.Info("order created",
		zap.String("user_id", principal.UserID),
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()))
	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, principal domain.Principal, orderID string) (*domain.Order, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, principal.UserID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, principal domain.Principal) ([]domain.Order, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	orders, err := s.store.ListOrders(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// materialize prices every line once and copies the price into the order.
func (s *OrderService) materialize(cart domain.Cart, addressID, paymentMethod string) (domain.Order, error) {
	now := s.now()
	order := domain.Order{
		ID:                uuid.NewString(),
		OrderNumber:       s.orderNumber(now),
		UserID:            cart.UserID,
		ShippingAddressID: addressID,
		PaymentMethod:     paymentMethod,
		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		Lines:             make([]domain.OrderLine, 0, len(cart.Lines)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var subtotal domain.Money
	for _, line := range cart.Lines {
		unit, err := pricing.LinePrice(line)
		if err != nil {
			return domain.Order{}, err
		}
		if err := checkStock(line); err != nil {
			return domain.Order{}, err
		}

		orderLine := domain.OrderLine{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Price:     unit,
		}
		order.Lines = append(order.Lines, orderLine)
		subtotal += orderLine.Subtotal()
	}

	order.Totals = s.policy.Totals(subtotal)
	return order, nil
}

func (s *OrderService) insertOrder(ctx context.Context, repo port.OrderRepository, order *domain.Order) error {
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		err := repo.CreateOrder(ctx, *order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, port.ErrDuplicateOrderNumber) {
			return fmt.Errorf("create order: %w", err)
		}

		s.logger.Warn("order number collision",
			zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt))
		order.OrderNumber = s.orderNumber(s.now())
	}
	return fmt.Errorf("create order: %w after %d attempts", port.ErrDuplicateOrderNumber, maxOrderNumberAttempts)
}

// decrementStock takes ordered units out of stock using the versions loaded
// with the cart, so a concurrent writer turns into ErrOptimisticLock.
func decrementStock(ctx context.Context, repo port.ProductRepository, lines []domain.CartLine) error {
	for _, line := range lines {
		var err error
		if line.Variant != nil {
			err = repo.DecrementVariantStock(ctx, line.Variant.ID, line.Quantity, line.Variant.Version)
		} else {
			err = repo.DecrementProductStock(ctx, line.Product.ID, line.Quantity, line.Product.Version)
		}
		if err != nil {
			return fmt.Errorf("decrement stock for product %s: %w", line.ProductID, err)
		}
	}
	return nil
}

func normalizePaymentMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}
