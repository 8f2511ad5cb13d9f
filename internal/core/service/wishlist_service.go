package service

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type WishlistService struct {
	store port.Store
}

func NewWishlistService(store port.Store) *WishlistService {
	return &WishlistService{store: store}
}

func (s *WishlistService) Get(ctx context.Context, principal domain.Principal) (*domain.Wishlist, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	wishlist, err := s.store.GetWishlist(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return wishlist, nil
}

// Add lists the product once; adding it again changes nothing.
func (s *WishlistService) Add(ctx context.Context, principal domain.Principal, productID string) (*domain.Wishlist, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	var wishlist *domain.Wishlist
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		product, err := repo.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil || !product.IsActive {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
		}

		wishlist, err = ensureWishlist(ctx, repo, principal.UserID)
		if err != nil {
			return err
		}
		if err := repo.AddWishlistItem(ctx, wishlist.ID, productID); err != nil {
			return fmt.Errorf("add wishlist item: %w", err)
		}

		wishlist, err = repo.GetWishlist(ctx, principal.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wishlist, nil
}

// Remove drops the product from the wishlist if it is there.
func (s *WishlistService) Remove(ctx context.Context, principal domain.Principal, productID string) (*domain.Wishlist, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	var wishlist *domain.Wishlist
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		var err error
		wishlist, err = ensureWishlist(ctx, repo, principal.UserID)
		if err != nil {
			return err
		}
		if _, err := repo.RemoveWishlistItem(ctx, wishlist.ID, productID); err != nil {
			return fmt.Errorf("remove wishlist item: %w", err)
		}

		wishlist, err = repo.GetWishlist(ctx, principal.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wishlist, nil
}

func ensureWishlist(ctx context.Context, repo port.WishlistRepository, userID string) (*domain.Wishlist, error) {
	if err := repo.EnsureWishlist(ctx, userID); err != nil {
		return nil, fmt.Errorf("create wishlist: %w", err)
	}
	wishlist, err := repo.GetWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	if wishlist == nil {
		return nil, fmt.Errorf("wishlist for user %s missing after create", userID)
	}
	return wishlist, nil
}
