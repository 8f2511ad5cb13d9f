package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const minPasswordLength = 6

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
}

type TokenIssuer interface {
	Issue(principal domain.Principal) (string, error)
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type AddressInput struct {
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

type AuthPayload struct {
	Token string
	User  domain.User
}

type UserService struct {
	store  port.Store
	hasher PasswordHasher
	issuer TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(store port.Store, hasher PasswordHasher, issuer TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		hasher: hasher,
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a customer along with an empty cart and wishlist.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthPayload, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    s.now(),
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		if err := repo.CreateUser(ctx, user); err != nil {
			if errors.Is(err, port.ErrDuplicateEmail) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := repo.EnsureCart(ctx, user.ID); err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		if err := repo.EnsureWishlist(ctx, user.ID); err != nil {
			return fmt.Errorf("create wishlist: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.payload(user)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive || !s.hasher.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.payload(*user)
}

// Me returns the principal's user record, nil if it no longer exists.
func (s *UserService) Me(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) AddAddress(ctx context.Context, principal domain.Principal, input AddressInput) (*domain.Address, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Line1) == "" || strings.TrimSpace(input.City) == "" ||
		strings.TrimSpace(input.PostalCode) == "" || strings.TrimSpace(input.Country) == "" {
		return nil, fmt.Errorf("%w: line1, city, postalCode and country are required", domain.ErrInvalidInput)
	}

	address := domain.Address{
		ID:         uuid.NewString(),
		UserID:     principal.UserID,
		FullName:   strings.TrimSpace(input.FullName),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Phone:      strings.TrimSpace(input.Phone),
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return &address, nil
}

func (s *UserService) ListAddresses(ctx context.Context, principal domain.Principal) ([]domain.Address, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}

	addresses, err := s.store.ListAddresses(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

func (s *UserService) payload(user domain.User) (*AuthPayload, error) {
	token, err := s.issuer.Issue(domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthPayload{Token: token, User: user}, nil
}
