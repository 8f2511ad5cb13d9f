package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ProductRepository interface {
	// GetProduct returns nil when the product does not exist
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// ListProducts returns one page of active products and the total match count
	ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int, error)

	// GetVariant returns nil when the variant does not exist
	GetVariant(ctx context.Context, id string) (*domain.Variant, error)

	ListVariants(ctx context.Context, productID string, activeOnly bool) ([]domain.Variant, error)

	// DecrementProductStock subtracts quantity if version still matches, else ErrOptimisticLock
	DecrementProductStock(ctx context.Context, productID string, quantity, version int) error

	// DecrementVariantStock subtracts quantity if version still matches, else ErrOptimisticLock
	DecrementVariantStock(ctx context.Context, variantID string, quantity, version int) error

	// UpsertProduct and UpsertVariant are used by catalog seeding
	UpsertProduct(ctx context.Context, product domain.Product) error
	UpsertVariant(ctx context.Context, variant domain.Variant) error
}

type CategoryRepository interface {
	// ListCategories returns active categories ordered by name
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// GetCategory returns nil when the category does not exist
	GetCategory(ctx context.Context, id string) (*domain.Category, error)

	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)

	UpsertCategory(ctx context.Context, category domain.Category) error
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review domain.Review) error

	// ListReviews returns the product's reviews with their authors, newest first
	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
}

type CartRepository interface {
	// GetCart loads the user's cart with products and variants, nil if none
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)

	// LockCart is GetCart holding a write lock on the cart until the transaction ends
	LockCart(ctx context.Context, userID string) (*domain.Cart, error)

	// EnsureCart creates the user's cart if missing
	EnsureCart(ctx context.Context, userID string) error

	// SaveCartLine inserts or updates a line by its ID
	SaveCartLine(ctx context.Context, line domain.CartLine) error

	DeleteCartLine(ctx context.Context, lineID string) error

	ClearCart(ctx context.Context, cartID string) error
}

type OrderRepository interface {
	// CreateOrder persists the order and its lines, ErrDuplicateOrderNumber on collision
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder returns nil when the order does not exist or belongs to another user
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)

	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

type UserRepository interface {
	// CreateUser fails with ErrDuplicateEmail when the email is taken
	CreateUser(ctx context.Context, user domain.User) error

	GetUser(ctx context.Context, id string) (*domain.User, error)

	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAddress returns nil unless the address exists and belongs to userID
	GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error)

	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)

	CreateAddress(ctx context.Context, address domain.Address) error
}

type WishlistRepository interface {
	// GetWishlist loads the user's wishlist with products, nil if none
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)

	EnsureWishlist(ctx context.Context, userID string) error

	// AddWishlistItem is a no-op if the product is already listed
	AddWishlistItem(ctx context.Context, wishlistID, productID string) error

	// RemoveWishlistItem reports whether an item was removed
	RemoveWishlistItem(ctx context.Context, wishlistID, productID string) (bool, error)
}

type DatabaseRepository interface {
	ProductRepository
	CategoryRepository
	ReviewRepository
	CartRepository
	OrderRepository
	UserRepository
	WishlistRepository
}

type Store interface {
	DatabaseRepository

	// WithinTx runs fn in one transaction, committed only if fn returns nil
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo DatabaseRepository) error) error

	Ping(ctx context.Context) error
}
