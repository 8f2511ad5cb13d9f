package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
	"github.com/rl1809/storefront/internal/port"
)

type CartService struct {
	store  port.Store
	policy pricing.Policy
	guard  *idempotencyGuard
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(store port.Store, cache port.CacheRepository, policy pricing.Policy, logger *zap.Logger) *CartService {
	return &CartService{
		store:  store,
		policy: policy,
		guard:  newIdempotencyGuard(cache, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the priced cart, or nil if the user never had one.
func (s *CartService) Get(ctx context.Context, principal domain.Principal) (*domain.CartSnapshot, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	cart, err := s.store.GetCart(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return nil, nil
	}

	snap := s.policy.Snapshot(*cart)
	return &snap, nil
}

// AddLine adds quantity to the (product, variant) line, creating the cart and
// the line as needed. The combined quantity must stay within stock.
func (s *CartService) AddLine(ctx context.Context, principal domain.Principal, productID string, quantity int, variantID string) (*domain.CartSnapshot, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidQuantity, quantity)
	}

	var snap domain.CartSnapshot
	err := s.guard.run(ctx, principal.UserID, "addToCart", func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
			product, variant, err := loadItem(ctx, repo, productID, variantID)
			if err != nil {
				return err
			}

			cart, err := lockOrCreateCart(ctx, repo, principal.UserID)
			if err != nil {
				return err
			}

			idx := cart.FindLine(productID, variantID)
			var line domain.CartLine
			if idx >= 0 {
				line = cart.Lines[idx]
				line.Quantity += quantity
			} else {
				line = domain.CartLine{
					ID:        uuid.NewString(),
					CartID:    cart.ID,
					ProductID: productID,
					VariantID: variantID,
					Quantity:  quantity,
					CreatedAt: s.now(),
				}
			}
			line.Product, line.Variant = product, variant

			if err := checkStock(line); err != nil {
				return err
			}
			if err := repo.SaveCartLine(ctx, line); err != nil {
				return fmt.Errorf("save cart line: %w", err)
			}

			if idx >= 0 {
				cart.Lines[idx] = line
			} else {
				cart.Lines = append(cart.Lines, line)
			}

			snap = s.policy.Snapshot(*cart)
			return nil
		})
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.logger.Info("added to cart",
		zap.String("user_id", principal.UserID),
		zap.String("product_id", productID),
		zap.String("variant_id", variantID),
		zap.Int("quantity", quantity))
	return &snap, nil
}

// UpdateLine sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (s *CartService) UpdateLine(ctx context.Context, principal domain.Principal, productID string, quantity int, variantID string) (*domain.CartSnapshot, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	var snap domain.CartSnapshot
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		cart, err := repo.LockCart(ctx, principal.UserID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if cart == nil {
			return fmt.Errorf("%w: product %s", domain.ErrLineNotFound, productID)
		}

		idx := cart.FindLine(productID, variantID)
		if idx < 0 {
			return fmt.Errorf("%w: product %s", domain.ErrLineNotFound, productID)
		}

		if quantity <= 0 {
			if err := repo.DeleteCartLine(ctx, cart.Lines[idx].ID); err != nil {
				return fmt.Errorf("delete cart line: %w", err)
			}
			cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		} else {
			line := cart.Lines[idx]
			line.Quantity = quantity
			if _, err := pricing.LinePrice(line); err != nil {
				return err
			}
			if err := checkStock(line); err != nil {
				return err
			}
			if err := repo.SaveCartLine(ctx, line); err != nil {
				return fmt.Errorf("save cart line: %w", err)
			}
			cart.Lines[idx] = line
		}

		snap = s.policy.Snapshot(*cart)
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.logger.Info("updated cart line",
		zap.String("user_id", principal.UserID),
		zap.String("product_id", productID),
		zap.String("variant_id", variantID),
		zap.Int("quantity", quantity))
	return &snap, nil
}

// RemoveLine deletes the (product, variant) line if present. Removing from a
// user without a cart changes nothing.
func (s *CartService) RemoveLine(ctx context.Context, principal domain.Principal, productID, variantID string) (*domain.CartSnapshot, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	var snap domain.CartSnapshot
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		cart, err := repo.LockCart(ctx, principal.UserID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if cart == nil {
			snap = s.policy.Snapshot(domain.Cart{UserID: principal.UserID})
			return nil
		}

		if idx := cart.FindLine(productID, variantID); idx >= 0 {
			if err := repo.DeleteCartLine(ctx, cart.Lines[idx].ID); err != nil {
				return fmt.Errorf("delete cart line: %w", err)
			}
			cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		}

		snap = s.policy.Snapshot(*cart)
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return &snap, nil
}

// Clear empties the cart. Clearing an empty or missing cart succeeds.
func (s *CartService) Clear(ctx context.Context, principal domain.Principal) error {
	if err := requireUser(principal); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		cart, err := repo.LockCart(ctx, principal.UserID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if cart == nil || cart.IsEmpty() {
			return nil
		}
		return repo.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return translateStoreErr(err)
	}

	s.logger.Info("cleared cart", zap.String("user_id", principal.UserID))
	return nil
}

func lockOrCreateCart(ctx context.Context, repo port.DatabaseRepository, userID string) (*domain.Cart, error) {
	cart, err := repo.LockCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	if err := repo.EnsureCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	cart, err = repo.LockCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	if cart == nil {
		return nil, fmt.Errorf("cart for user %s missing after create", userID)
	}
	return cart, nil
}

// loadItem fetches the product and optional variant a line refers to and
// rejects unknown products and unusable variants.
func loadItem(ctx context.Context, repo port.ProductRepository, productID, variantID string) (*domain.Product, *domain.Variant, error) {
	product, err := repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	if variantID == "" {
		return product, nil, nil
	}

	variant, err := repo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, nil, fmt.Errorf("get variant: %w", err)
	}
	if variant == nil {
		return nil, nil, fmt.Errorf("%w: variant %s not found", domain.ErrInvalidVariant, variantID)
	}
	if _, err := pricing.ResolvePrice(*product, variant); err != nil {
		return nil, nil, err
	}
	return product, variant, nil
}

func checkStock(line domain.CartLine) error {
	available := pricing.LineStock(line)
	if line.Quantity > available {
		return fmt.Errorf("%w: product %s requested %d, available %d",
			domain.ErrOutOfStock, line.ProductID, line.Quantity, available)
	}
	return nil
}
