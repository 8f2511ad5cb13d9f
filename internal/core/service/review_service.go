package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type ReviewInput struct {
	ProductID string
	Rating    int
	Title     string
	Comment   string
}

type ReviewService struct {
	store  port.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewReviewService(store port.Store, logger *zap.Logger) *ReviewService {
	return &ReviewService{store: store, logger: logger, now: time.Now}
}

// Add records the signed-in user's review of an active product.
func (s *ReviewService) Add(ctx context.Context, principal domain.Principal, in ReviewInput) (*domain.Review, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	review := domain.Review{
		ID:        uuid.NewString(),
		UserID:    principal.UserID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now(),
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		product, err := repo.GetProduct(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil || !product.IsActive {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, in.ProductID)
		}

		if review.User, err = repo.GetUser(ctx, principal.UserID); err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review added",
		zap.String("user_id", principal.UserID),
		zap.String("product_id", in.ProductID),
		zap.Int("rating", in.Rating))
	return &review, nil
}

// ForProduct lists a product's reviews, newest first.
func (s *ReviewService) ForProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	reviews, err := s.store.ListReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
