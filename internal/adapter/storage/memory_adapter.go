package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// MemoryAdapter keeps the whole store in process. Transactions are
// serialised by one mutex and work on a copy that replaces the committed
// state only when the transaction function succeeds.
type MemoryAdapter struct {
	*memoryRepo
	mu    sync.Mutex
	state *memoryState
}

var _ port.Store = (*MemoryAdapter)(nil)

func NewMemoryAdapter() *MemoryAdapter {
	a := &MemoryAdapter{state: newMemoryState()}
	a.memoryRepo = &memoryRepo{adapter: a}
	return a
}

func (m *MemoryAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, repo port.DatabaseRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := m.state.clone()
	if err := fn(ctx, &memoryRepo{tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.state = work
	return nil
}

func (m *MemoryAdapter) Ping(ctx context.Context) error {
	return ctx.Err()
}

type memoryState struct {
	products     map[string]domain.Product
	variants     map[string]domain.Variant
	categories   map[string]domain.Category
	reviews      []domain.Review
	carts        map[string]domain.Cart // by user id
	orders       map[string]domain.Order
	orderNumbers map[string]string
	users        map[string]domain.User
	emails       map[string]string
	addresses    map[string]domain.Address
	wishlists    map[string]domain.Wishlist // by user id
}

func newMemoryState() *memoryState {
	return &memoryState{
		products:     make(map[string]domain.Product),
		variants:     make(map[string]domain.Variant),
		categories:   make(map[string]domain.Category),
		carts:        make(map[string]domain.Cart),
		orders:       make(map[string]domain.Order),
		orderNumbers: make(map[string]string),
		users:        make(map[string]domain.User),
		emails:       make(map[string]string),
		addresses:    make(map[string]domain.Address),
		wishlists:    make(map[string]domain.Wishlist),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	c.reviews = append([]domain.Review(nil), s.reviews...)
	for k, v := range s.carts {
		v.Lines = append([]domain.CartLine(nil), v.Lines...)
		c.carts[k] = v
	}
	for k, v := range s.orders {
		v.Lines = append([]domain.OrderLine(nil), v.Lines...)
		c.orders[k] = v
	}
	for k, v := range s.orderNumbers {
		c.orderNumbers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.wishlists {
		v.Items = append([]domain.WishlistItem(nil), v.Items...)
		c.wishlists[k] = v
	}
	return c
}

// memoryRepo reads and writes tx when inside a transaction, otherwise the
// adapter's committed state under its lock.
type memoryRepo struct {
	adapter *MemoryAdapter
	tx      *memoryState
}

func (r *memoryRepo) with(fn func(s *memoryState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.adapter.mu.Lock()
	defer r.adapter.mu.Unlock()
	return fn(r.adapter.state)
}

func (r *memoryRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out *domain.Product
	err := r.with(func(s *memoryState) error {
		if p, ok := s.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var out *domain.Product
	err := r.with(func(s *memoryState) error {
		for _, p := range s.products {
			if p.Slug == slug {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int, error) {
	var (
		page  []domain.Product
		total int
	)
	err := r.with(func(s *memoryState) error {
		var matched []domain.Product
		for _, p := range s.products {
			if matchesQuery(p, query) {
				matched = append(matched, p)
			}
		}
		sortProducts(matched, query.SortBy)

		total = len(matched)
		start := min(query.Offset, total)
		end := total
		if query.Limit > 0 {
			end = min(start+query.Limit, total)
		}
		page = matched[start:end]
		return nil
	})
	return page, total, err
}

func (r *memoryRepo) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	var out *domain.Variant
	err := r.with(func(s *memoryState) error {
		if v, ok := s.variants[id]; ok {
			out = &v
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) ListVariants(ctx context.Context, productID string, activeOnly bool) ([]domain.Variant, error) {
	var out []domain.Variant
	err := r.with(func(s *memoryState) error {
		for _, v := range s.variants {
			if v.ProductID == productID && (!activeOnly || v.IsActive) {
				out = append(out, v)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
		return nil
	})
	return out, err
}

func (r *memoryRepo) DecrementProductStock(ctx context.Context, productID string, quantity, version int) error {
	return r.with(func(s *memoryState) error {
		p, ok := s.products[productID]
		if !ok || p.Version != version || p.Stock < quantity {
			return port.ErrOptimisticLock
		}
		p.Stock -= quantity
		p.Version++
		p.UpdatedAt = time.Now()
		s.products[productID] = p
		return nil
	})
}

func (r *memoryRepo) DecrementVariantStock(ctx context.Context, variantID string, quantity, version int) error {
	return r.with(func(s *memoryState) error {
		v, ok := s.variants[variantID]
		if !ok || v.Version != version || v.Stock < quantity {
			return port.ErrOptimisticLock
		}
		v.Stock -= quantity
		v.Version++
		s.variants[variantID] = v
		return nil
	})
}

func (r *memoryRepo) UpsertProduct(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	return r.with(func(s *memoryState) error {
		if existing, ok := s.products[product.ID]; ok {
			product.Version = existing.Version + 1
		}
		s.products[product.ID] = product
		return nil
	})
}

func (r *memoryRepo) UpsertVariant(ctx context.Context, variant domain.Variant) error {
	if err := variant.Validate(); err != nil {
		return err
	}
	return r.with(func(s *memoryState) error {
		if existing, ok := s.variants[variant.ID]; ok {
			variant.Version = existing.Version + 1
		}
		s.variants[variant.ID] = variant
		return nil
	})
}

func (r *memoryRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.with(func(s *memoryState) error {
		for _, c := range s.categories {
			if c.IsActive {
				out = append(out, c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (r *memoryRepo) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var out *domain.Category
	err := r.with(func(s *memoryState) error {
		if c, ok := s.categories[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var out *domain.Category
	err := r.with(func(s *memoryState) error {
		for _, c := range s.categories {
			if c.Slug == slug {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) UpsertCategory(ctx context.Context, category domain.Category) error {
	return r.with(func(s *memoryState) error {
		s.categories[category.ID] = category
		return nil
	})
}

func (r *memoryRepo) CreateReview(ctx context.Context, review domain.Review) error {
	review.User = nil
	return r.with(func(s *memoryState) error {
		s.reviews = append(s.reviews, review)
		return nil
	})
}

func (r *memoryRepo) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	var out []domain.Review
	err := r.with(func(s *memoryState) error {
		for _, review := range s.reviews {
			if review.ProductID != productID {
				continue
			}
			if u, ok := s.users[review.UserID]; ok {
				review.User = &u
			}
			out = append(out, review)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r *memoryRepo) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.with(func(s *memoryState) error {
		cart, ok := s.carts[userID]
		if !ok {
			return nil
		}
		hydrated := s.hydrateCart(cart)
		out = &hydrated
		return nil
	})
	return out, err
}

// LockCart needs no extra lock: transactions already run one at a time.
func (r *memoryRepo) LockCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.GetCart(ctx, userID)
}

func (r *memoryRepo) EnsureCart(ctx context.Context, userID string) error {
	return r.with(func(s *memoryState) error {
		if _, ok := s.carts[userID]; ok {
			return nil
		}
		now := time.Now()
		s.carts[userID] = domain.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (r *memoryRepo) SaveCartLine(ctx context.Context, line domain.CartLine) error {
	line.Product, line.Variant = nil, nil
	return r.with(func(s *memoryState) error {
		for userID, cart := range s.carts {
			if cart.ID != line.CartID {
				continue
			}
			for i := range cart.Lines {
				if cart.Lines[i].ID == line.ID {
					cart.Lines[i] = line
					s.carts[userID] = cart
					return nil
				}
			}
			cart.Lines = append(cart.Lines, line)
			s.carts[userID] = cart
			return nil
		}
		return domain.ErrLineNotFound
	})
}

func (r *memoryRepo) DeleteCartLine(ctx context.Context, lineID string) error {
	return r.with(func(s *memoryState) error {
		for userID, cart := range s.carts {
			for i := range cart.Lines {
				if cart.Lines[i].ID == lineID {
					cart.Lines = append(cart.Lines[:i:i], cart.Lines[i+1:]...)
					s.carts[userID] = cart
					return nil
				}
			}
		}
		return nil
	})
}

func (r *memoryRepo) ClearCart(ctx context.Context, cartID string) error {
	return r.with(func(s *memoryState) error {
		for userID, cart := range s.carts {
			if cart.ID == cartID {
				cart.Lines = nil
				s.carts[userID] = cart
			}
		}
		return nil
	})
}

func (r *memoryRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	return r.with(func(s *memoryState) error {
		if _, taken := s.orderNumbers[order.OrderNumber]; taken {
			return port.ErrDuplicateOrderNumber
		}
		order.Lines = append([]domain.OrderLine(nil), order.Lines...)
		s.orders[order.ID] = order
		s.orderNumbers[order.OrderNumber] = order.ID
		return nil
	})
}

func (r *memoryRepo) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	var out *domain.Order
	err := r.with(func(s *memoryState) error {
		order, ok := s.orders[orderID]
		if !ok || order.UserID != userID {
			return nil
		}
		order.Lines = append([]domain.OrderLine(nil), order.Lines...)
		out = &order
		return nil
	})
	return out, err
}

func (r *memoryRepo) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.with(func(s *memoryState) error {
		for _, order := range s.orders {
			if order.UserID == userID {
				order.Lines = append([]domain.OrderLine(nil), order.Lines...)
				out = append(out, order)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r *memoryRepo) CreateUser(ctx context.Context, user domain.User) error {
	return r.with(func(s *memoryState) error {
		if _, taken := s.emails[user.Email]; taken {
			return port.ErrDuplicateEmail
		}
		s.users[user.ID] = user
		s.emails[user.Email] = user.ID
		return nil
	})
}

func (r *memoryRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(s *memoryState) error {
		if u, ok := s.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(s *memoryState) error {
		if id, ok := s.emails[email]; ok {
			u := s.users[id]
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	var out *domain.Address
	err := r.with(func(s *memoryState) error {
		if a, ok := s.addresses[addressID]; ok && a.UserID == userID {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *memoryRepo) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	var out []domain.Address
	err := r.with(func(s *memoryState) error {
		for _, a := range s.addresses {
			if a.UserID == userID {
				out = append(out, a)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r *memoryRepo) CreateAddress(ctx context.Context, address domain.Address) error {
	return r.with(func(s *memoryState) error {
		s.addresses[address.ID] = address
		return nil
	})
}

func (r *memoryRepo) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var out *domain.Wishlist
	err := r.with(func(s *memoryState) error {
		w, ok := s.wishlists[userID]
		if !ok {
			return nil
		}
		items := make([]domain.WishlistItem, 0, len(w.Items))
		for _, item := range w.Items {
			if p, ok := s.products[item.ProductID]; ok {
				item.Product = &p
			}
			items = append(items, item)
		}
		w.Items = items
		out = &w
		return nil
	})
	return out, err
}

func (r *memoryRepo) EnsureWishlist(ctx context.Context, userID string) error {
	return r.with(func(s *memoryState) error {
		if _, ok := s.wishlists[userID]; !ok {
			s.wishlists[userID] = domain.Wishlist{ID: uuid.NewString(), UserID: userID}
		}
		return nil
	})
}

func (r *memoryRepo) AddWishlistItem(ctx context.Context, wishlistID, productID string) error {
	return r.with(func(s *memoryState) error {
		for userID, w := range s.wishlists {
			if w.ID != wishlistID {
				continue
			}
			for _, item := range w.Items {
				if item.ProductID == productID {
					return nil
				}
			}
			w.Items = append(w.Items, domain.WishlistItem{ID: uuid.NewString(), ProductID: productID, AddedAt: time.Now()})
			s.wishlists[userID] = w
			return nil
		}
		return nil
	})
}

func (r *memoryRepo) RemoveWishlistItem(ctx context.Context, wishlistID, productID string) (bool, error) {
	removed := false
	err := r.with(func(s *memoryState) error {
		for userID, w := range s.wishlists {
			if w.ID != wishlistID {
				continue
			}
			for i, item := range w.Items {
				if item.ProductID == productID {
					w.Items = append(w.Items[:i:i], w.Items[i+1:]...)
					s.wishlists[userID] = w
					removed = true
					return nil
				}
			}
		}
		return nil
	})
	return removed, err
}

// hydrateCart attaches copies of the current product and variant to every
// line.
func (s *memoryState) hydrateCart(cart domain.Cart) domain.Cart {
	lines := make([]domain.CartLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if p, ok := s.products[line.ProductID]; ok {
			line.Product = &p
		}
		if line.VariantID != "" {
			if v, ok := s.variants[line.VariantID]; ok {
				line.Variant = &v
			}
		}
		lines = append(lines, line)
	}
	cart.Lines = lines
	return cart
}

func matchesQuery(p domain.Product, q domain.ProductQuery) bool {
	if !p.IsActive {
		return false
	}
	if q.CategoryID != "" && p.CategoryID != q.CategoryID {
		return false
	}
	if q.Brand != "" && !strings.EqualFold(p.Brand, q.Brand) {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.IsFeatured != nil && p.IsFeatured != *q.IsFeatured {
		return false
	}
	return true
}

func sortProducts(products []domain.Product, sortBy string) {
	less := func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch sortBy {
	case domain.SortByPrice:
		less = func(a, b domain.Product) bool { return a.Price > b.Price }
	case domain.SortByName:
		less = func(a, b domain.Product) bool { return a.Name > b.Name }
	}
	sort.SliceStable(products, func(i, j int) bool {
		if less(products[i], products[j]) {
			return true
		}
		if less(products[j], products[i]) {
			return false
		}
		return products[i].ID < products[j].ID
	})
}
