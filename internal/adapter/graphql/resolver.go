package graphql

import (
	"context"
	"errors"

	"github.com/go-chi/chi/v5/middleware"
	gql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/auth"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type Services struct {
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Orders    *service.OrderService
	Users     *service.UserService
	Wishlists *service.WishlistService
	Reviews   *service.ReviewService
}

// Resolver is the root of both Query and Mutation.
type Resolver struct {
	Services
	logger *zap.Logger
}

func NewResolver(services Services, logger *zap.Logger) *Resolver {
	return &Resolver{Services: services, logger: logger}
}

func requestIDFrom(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

func optionalID(id *gql.ID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Queries

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.Users.Me(ctx, auth.PrincipalFrom(ctx))
	if err != nil {
		return nil, r.fail(ctx, "me", err)
	}
	if user == nil {
		return nil, nil
	}
	return &userResolver{u: *user}, nil
}

type productFilterInput struct {
	CategoryID *string
	MinPrice   *float64
	MaxPrice   *float64
	Brand      *string
	IsFeatured *bool
}

func (r *Resolver) Products(ctx context.Context, args struct {
	Page     *int32
	PageSize *int32
	Filter   *productFilterInput
	SortBy   *string
}) (*productsResponseResolver, error) {
	page, pageSize := 1, 0
	if args.Page != nil {
		page = int(*args.Page)
	}
	if args.PageSize != nil {
		pageSize = int(*args.PageSize)
	}

	query := domain.ProductQuery{SortBy: deref(args.SortBy)}
	if f := args.Filter; f != nil {
		query.CategoryID = deref(f.CategoryID)
		query.Brand = deref(f.Brand)
		query.IsFeatured = f.IsFeatured
		if f.MinPrice != nil {
			query.MinPrice = domain.MoneyFromFloat(*f.MinPrice).Ptr()
		}
		if f.MaxPrice != nil {
			query.MaxPrice = domain.MoneyFromFloat(*f.MaxPrice).Ptr()
		}
	}

	result, err := r.Catalog.ListProducts(ctx, page, pageSize, query)
	if err != nil {
		return nil, r.fail(ctx, "products", err)
	}
	return &productsResponseResolver{root: r, page: result}, nil
}

func (r *Resolver) Product(ctx context.Context, args struct {
	ID   *gql.ID
	Slug *string
}) (*productResolver, error) {
	view, err := r.Catalog.GetProduct(ctx, optionalID(args.ID), deref(args.Slug))
	if err != nil {
		return nil, r.fail(ctx, "product", err)
	}
	if view == nil {
		return nil, nil
	}
	return newProductView(r, *view), nil
}

func (r *Resolver) FeaturedProducts(ctx context.Context) ([]*productResolver, error) {
	views, err := r.Catalog.Featured(ctx)
	if err != nil {
		return nil, r.fail(ctx, "featuredProducts", err)
	}
	return productViews(r, views), nil
}

func (r *Resolver) Categories(ctx context.Context) ([]*categoryResolver, error) {
	categories, err := r.Catalog.Categories(ctx)
	if err != nil {
		return nil, r.fail(ctx, "categories", err)
	}
	out := make([]*categoryResolver, 0, len(categories))
	for _, c := range categories {
		out = append(out, &categoryResolver{root: r, c: c})
	}
	return out, nil
}

func (r *Resolver) Category(ctx context.Context, args struct {
	ID   *gql.ID
	Slug *string
}) (*categoryResolver, error) {
	category, err := r.Catalog.Category(ctx, optionalID(args.ID), deref(args.Slug))
	if err != nil {
		return nil, r.fail(ctx, "category", err)
	}
	if category == nil {
		return nil, nil
	}
	return &categoryResolver{root: r, c: *category}, nil
}

func (r *Resolver) MyCart(ctx context.Context) (*cartResolver, error) {
	snap, err := r.Carts.Get(ctx, auth.PrincipalFrom(ctx))
	if err != nil {
		return nil, r.fail(ctx, "myCart", err)
	}
	if snap == nil {
		return nil, nil
	}
	return &cartResolver{root: r, snap: *snap}, nil
}

func (r *Resolver) MyWishlist(ctx context.Context) (*wishlistResolver, error) {
	wishlist, err := r.Wishlists.Get(ctx, auth.PrincipalFrom(ctx))
	if err != nil {
		return nil, r.fail(ctx, "myWishlist", err)
	}
	if wishlist == nil {
		return nil, nil
	}
	return &wishlistResolver{root: r, w: *wishlist}, nil
}

func (r *Resolver) MyOrders(ctx context.Context) ([]*orderResolver, error) {
	orders, err := r.Orders.ListOrders(ctx, auth.PrincipalFrom(ctx))
	if err != nil {
		return nil, r.fail(ctx, "myOrders", err)
	}
	out := make([]*orderResolver, 0, len(orders))
	for _, o := range orders {
		out = append(out, &orderResolver{root: r, o: o})
	}
	return out, nil
}

func (r *Resolver) Order(ctx context.Context, args struct{ ID gql.ID }) (*orderResolver, error) {
	order, err := r.Orders.GetOrder(ctx, auth.PrincipalFrom(ctx), string(args.ID))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, r.fail(ctx, "order", err)
	}
	return &orderResolver{root: r, o: *order}, nil
}

func (r *Resolver) MyAddresses(ctx context.Context) ([]*addressResolver, error) {
	addresses, err := r.Users.ListAddresses(ctx, auth.PrincipalFrom(ctx))
	if err != nil {
		return nil, r.fail(ctx, "myAddresses", err)
	}
	out := make([]*addressResolver, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, &addressResolver{a: a})
	}
	return out, nil
}

// Mutations

type registerInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input registerInput }) (*authPayloadResolver, error) {
	payload, err := r.Users.Register(ctx, service.RegisterInput{
		Email:     args.Input.Email,
		Password:  args.Input.Password,
		FirstName: args.Input.FirstName,
		LastName:  args.Input.LastName,
		Phone:     deref(args.Input.Phone),
	})
	if err != nil {
		return nil, r.fail(ctx, "register", err)
	}
	return &authPayloadResolver{p: *payload}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authPayloadResolver, error) {
	payload, err := r.Users.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, r.fail(ctx, "login", err)
	}
	return &authPayloadResolver{p: *payload}, nil
}

type addressInput struct {
	FullName   string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      *string
}

func (r *Resolver) AddAddress(ctx context.Context, args struct{ Input addressInput }) (*addressResolver, error) {
	in := args.Input
	address, err := r.Users.AddAddress(ctx, auth.PrincipalFrom(ctx), service.AddressInput{
		FullName:   in.FullName,
		Line1:      in.Line1,
		Line2:      deref(in.Line2),
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      deref(in.Phone),
	})
	if err != nil {
		return nil, r.fail(ctx, "addAddress", err)
	}
	return &addressResolver{a: *address}, nil
}

type cartLineArgs struct {
	ProductID gql.ID
	Quantity  int32
	VariantID *gql.ID
}

func (r *Resolver) AddToCart(ctx context.Context, args cartLineArgs) (*cartResolver, error) {
	snap, err := r.Carts.AddLine(ctx, auth.PrincipalFrom(ctx),
		string(args.ProductID), int(args.Quantity), optionalID(args.VariantID))
	if err != nil {
		return nil, r.fail(ctx, "addToCart", err)
	}
	return &cartResolver{root: r, snap: *snap}, nil
}

func (r *Resolver) UpdateCartItem(ctx context.Context, args cartLineArgs) (*cartResolver, error) {
	snap, err := r.Carts.UpdateLine(ctx, auth.PrincipalFrom(ctx),
		string(args.ProductID), int(args.Quantity), optionalID(args.VariantID))
	if err != nil {
		return nil, r.fail(ctx, "updateCartItem", err)
	}
	return &cartResolver{root: r, snap: *snap}, nil
}

func (r *Resolver) RemoveFromCart(ctx context.Context, args struct {
	ProductID gql.ID
	VariantID *gql.ID
}) (*cartResolver, error) {
	snap, err := r.Carts.RemoveLine(ctx, auth.PrincipalFrom(ctx),
		string(args.ProductID), optionalID(args.VariantID))
	if err != nil {
		return nil, r.fail(ctx, "removeFromCart", err)
	}
	return &cartResolver{root: r, snap: *snap}, nil
}

func (r *Resolver) ClearCart(ctx context.Context) (bool, error) {
	if err := r.Carts.Clear(ctx, auth.PrincipalFrom(ctx)); err != nil {
		return false, r.fail(ctx, "clearCart", err)
	}
	return true, nil
}

func (r *Resolver) AddToWishlist(ctx context.Context, args struct{ ProductID gql.ID }) (*wishlistResolver, error) {
	wishlist, err := r.Wishlists.Add(ctx, auth.PrincipalFrom(ctx), string(args.ProductID))
	if err != nil {
		return nil, r.fail(ctx, "addToWishlist", err)
	}
	return &wishlistResolver{root: r, w: *wishlist}, nil
}

func (r *Resolver) RemoveFromWishlist(ctx context.Context, args struct{ ProductID gql.ID }) (*wishlistResolver, error) {
	wishlist, err := r.Wishlists.Remove(ctx, auth.PrincipalFrom(ctx), string(args.ProductID))
	if err != nil {
		return nil, r.fail(ctx, "removeFromWishlist", err)
	}
	return &wishlistResolver{root: r, w: *wishlist}, nil
}

func (r *Resolver) CreateOrder(ctx context.Context, args struct {
	AddressID     gql.ID
	PaymentMethod string
}) (*orderResolver, error) {
	order, err := r.Orders.CreateOrder(ctx, auth.PrincipalFrom(ctx), string(args.AddressID), args.PaymentMethod)
	if err != nil {
		return nil, r.fail(ctx, "createOrder", err)
	}
	return &orderResolver{root: r, o: *order}, nil
}

func (r *Resolver) AddReview(ctx context.Context, args struct {
	ProductID gql.ID
	Rating    int32
	Title     *string
	Comment   *string
}) (*reviewResolver, error) {
	review, err := r.Reviews.Add(ctx, auth.PrincipalFrom(ctx), service.ReviewInput{
		ProductID: string(args.ProductID),
		Rating:    int(args.Rating),
		Title:     deref(args.Title),
		Comment:   deref(args.Comment),
	})
	if err != nil {
		return nil, r.fail(ctx, "addReview", err)
	}
	return &reviewResolver{root: r, rv: *review}, nil
}
