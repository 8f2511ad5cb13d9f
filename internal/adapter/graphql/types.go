package graphql

import (
	"context"

	gql "github.com/graph-gophers/graphql-go"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
	"github.com/rl1809/storefront/internal/core/service"
)

func optionalMoney(m *domain.Money) *float64 {
	if m == nil {
		return nil
	}
	f := m.Float64()
	return &f
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// User

type userResolver struct {
	u domain.User
}

func (r *userResolver) ID() gql.ID          { return gql.ID(r.u.ID) }
func (r *userResolver) Email() string       { return r.u.Email }
func (r *userResolver) FirstName() string   { return r.u.FirstName }
func (r *userResolver) LastName() string    { return r.u.LastName }
func (r *userResolver) Phone() *string      { return optionalString(r.u.Phone) }
func (r *userResolver) Role() string        { return string(r.u.Role) }
func (r *userResolver) IsActive() bool      { return r.u.IsActive }
func (r *userResolver) CreatedAt() DateTime { return newDateTime(r.u.CreatedAt) }

type authPayloadResolver struct {
	p service.AuthPayload
}

func (r *authPayloadResolver) Token() string       { return r.p.Token }
func (r *authPayloadResolver) User() *userResolver { return &userResolver{u: r.p.User} }

type addressResolver struct {
	a domain.Address
}

func (r *addressResolver) ID() gql.ID          { return gql.ID(r.a.ID) }
func (r *addressResolver) FullName() string    { return r.a.FullName }
func (r *addressResolver) Line1() string       { return r.a.Line1 }
func (r *addressResolver) Line2() *string      { return optionalString(r.a.Line2) }
func (r *addressResolver) City() string        { return r.a.City }
func (r *addressResolver) State() string       { return r.a.State }
func (r *addressResolver) PostalCode() string  { return r.a.PostalCode }
func (r *addressResolver) Country() string     { return r.a.Country }
func (r *addressResolver) Phone() *string      { return optionalString(r.a.Phone) }
func (r *addressResolver) CreatedAt() DateTime { return newDateTime(r.a.CreatedAt) }

// Catalog

// productResolver loads variants lazily unless they came with the product.
// Reviews always load lazily.
type productResolver struct {
	root          *Resolver
	p             domain.Product
	variants      []domain.Variant
	loaded        bool
	reviews       []domain.Review
	reviewsLoaded bool
}

func newProduct(root *Resolver, p domain.Product) *productResolver {
	return &productResolver{root: root, p: p}
}

func newProductView(root *Resolver, view service.ProductView) *productResolver {
	return &productResolver{root: root, p: view.Product, variants: view.Variants, loaded: true}
}

func productViews(root *Resolver, views []service.ProductView) []*productResolver {
	out := make([]*productResolver, 0, len(views))
	for _, v := range views {
		out = append(out, newProductView(root, v))
	}
	return out
}

func (r *productResolver) ID() gql.ID          { return gql.ID(r.p.ID) }
func (r *productResolver) Name() string        { return r.p.Name }
func (r *productResolver) Slug() string        { return r.p.Slug }
func (r *productResolver) Description() string { return r.p.Description }
func (r *productResolver) SKU() string         { return r.p.SKU }
func (r *productResolver) Brand() *string      { return optionalString(r.p.Brand) }
func (r *productResolver) CategoryID() *string { return optionalString(r.p.CategoryID) }
func (r *productResolver) Price() float64      { return r.p.Price.Float64() }
func (r *productResolver) SalePrice() *float64 { return optionalMoney(r.p.SalePrice) }
func (r *productResolver) Stock() int32        { return int32(r.p.Stock) }
func (r *productResolver) IsActive() bool      { return r.p.IsActive }
func (r *productResolver) IsFeatured() bool    { return r.p.IsFeatured }
func (r *productResolver) HasVariants() bool   { return r.p.HasVariants }
func (r *productResolver) CreatedAt() DateTime { return newDateTime(r.p.CreatedAt) }
func (r *productResolver) UpdatedAt() DateTime { return newDateTime(r.p.UpdatedAt) }

func (r *productResolver) effective() domain.Money {
	// Without a variant ResolvePrice cannot fail.
	price, _ := pricing.ResolvePrice(r.p, nil)
	return price
}

func (r *productResolver) EffectivePrice() float64 {
	return r.effective().Float64()
}

func (r *productResolver) DiscountPercent() int32 {
	return int32(pricing.ResolveDiscountPercent(r.p.Price, r.effective()))
}

func (r *productResolver) loadVariants(ctx context.Context) ([]domain.Variant, error) {
	if r.loaded {
		return r.variants, nil
	}
	variants, err := r.root.Catalog.ActiveVariants(ctx, r.p)
	if err != nil {
		return nil, err
	}
	r.variants, r.loaded = variants, true
	return variants, nil
}

func (r *productResolver) Variants(ctx context.Context) ([]*variantResolver, error) {
	variants, err := r.loadVariants(ctx)
	if err != nil {
		return nil, r.root.fail(ctx, "product.variants", err)
	}
	out := make([]*variantResolver, 0, len(variants))
	for _, v := range variants {
		out = append(out, &variantResolver{product: r.p, v: v})
	}
	return out, nil
}

func (r *productResolver) Sizes(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, func(v domain.Variant) string { return v.Size })
}

func (r *productResolver) Colors(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, func(v domain.Variant) string { return v.Color })
}

func (r *productResolver) distinct(ctx context.Context, field func(domain.Variant) string) ([]string, error) {
	variants, err := r.loadVariants(ctx)
	if err != nil {
		return nil, r.root.fail(ctx, "product.variants", err)
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range variants {
		if value := field(v); value != "" && !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	return out, nil
}

func (r *productResolver) Category(ctx context.Context) (*categoryResolver, error) {
	if r.p.CategoryID == "" {
		return nil, nil
	}
	category, err := r.root.Catalog.Category(ctx, r.p.CategoryID, "")
	if err != nil {
		return nil, r.root.fail(ctx, "product.category", err)
	}
	if category == nil {
		return nil, nil
	}
	return &categoryResolver{root: r.root, c: *category}, nil
}

func (r *productResolver) loadReviews(ctx context.Context) ([]domain.Review, error) {
	if r.reviewsLoaded {
		return r.reviews, nil
	}
	reviews, err := r.root.Reviews.ForProduct(ctx, r.p.ID)
	if err != nil {
		return nil, r.root.fail(ctx, "product.reviews", err)
	}
	r.reviews, r.reviewsLoaded = reviews, true
	return reviews, nil
}

func (r *productResolver) Reviews(ctx context.Context) ([]*reviewResolver, error) {
	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*reviewResolver, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, &reviewResolver{root: r.root, rv: rv})
	}
	return out, nil
}

func (r *productResolver) Rating(ctx context.Context) (float64, error) {
	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return 0, err
	}
	return domain.Summarize(reviews).Average, nil
}

func (r *productResolver) ReviewCount(ctx context.Context) (int32, error) {
	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return 0, err
	}
	return int32(len(reviews)), nil
}

type variantResolver struct {
	product domain.Product
	v       domain.Variant
}

func (r *variantResolver) ID() gql.ID          { return gql.ID(r.v.ID) }
func (r *variantResolver) ProductID() string   { return r.v.ProductID }
func (r *variantResolver) SKU() string         { return r.v.SKU }
func (r *variantResolver) Name() string        { return r.v.Name }
func (r *variantResolver) Size() *string       { return optionalString(r.v.Size) }
func (r *variantResolver) Color() *string      { return optionalString(r.v.Color) }
func (r *variantResolver) Capacity() *string   { return optionalString(r.v.Capacity) }
func (r *variantResolver) Price() *float64     { return optionalMoney(r.v.Price) }
func (r *variantResolver) SalePrice() *float64 { return optionalMoney(r.v.SalePrice) }
func (r *variantResolver) Stock() int32        { return int32(r.v.Stock) }
func (r *variantResolver) IsActive() bool      { return r.v.IsActive }

func (r *variantResolver) EffectivePrice() (float64, error) {
	price, err := pricing.ResolvePrice(r.product, &r.v)
	if err != nil {
		if gqlErr := toError(err); gqlErr != nil {
			return 0, gqlErr
		}
		return 0, err
	}
	return price.Float64(), nil
}

type productsResponseResolver struct {
	root *Resolver
	page service.ProductPage
}

func (r *productsResponseResolver) Products() []*productResolver {
	return productViews(r.root, r.page.Products)
}

func (r *productsResponseResolver) Total() int32    { return int32(r.page.Total) }
func (r *productsResponseResolver) Page() int32     { return int32(r.page.Page) }
func (r *productsResponseResolver) PageSize() int32 { return int32(r.page.PageSize) }
func (r *productsResponseResolver) HasMore() bool   { return r.page.HasMore }

const categoryProductsLimit = 100

type categoryResolver struct {
	root *Resolver
	c    domain.Category
}

func (r *categoryResolver) ID() gql.ID           { return gql.ID(r.c.ID) }
func (r *categoryResolver) Name() string         { return r.c.Name }
func (r *categoryResolver) Slug() string         { return r.c.Slug }
func (r *categoryResolver) Description() *string { return optionalString(r.c.Description) }
func (r *categoryResolver) Image() *string       { return optionalString(r.c.Image) }

func (r *categoryResolver) Products(ctx context.Context) ([]*productResolver, error) {
	page, err := r.root.Catalog.ListProducts(ctx, 1, categoryProductsLimit, domain.ProductQuery{CategoryID: r.c.ID})
	if err != nil {
		return nil, r.root.fail(ctx, "category.products", err)
	}
	return productViews(r.root, page.Products), nil
}

type reviewResolver struct {
	root *Resolver
	rv   domain.Review
}

func (r *reviewResolver) ID() gql.ID          { return gql.ID(r.rv.ID) }
func (r *reviewResolver) Rating() int32       { return int32(r.rv.Rating) }
func (r *reviewResolver) Title() *string      { return optionalString(r.rv.Title) }
func (r *reviewResolver) Comment() *string    { return optionalString(r.rv.Comment) }
func (r *reviewResolver) IsVerified() bool    { return r.rv.IsVerified }
func (r *reviewResolver) CreatedAt() DateTime { return newDateTime(r.rv.CreatedAt) }

func (r *reviewResolver) User() *userResolver {
	if r.rv.User == nil {
		return nil
	}
	return &userResolver{u: *r.rv.User}
}

func (r *reviewResolver) Product(ctx context.Context) (*productResolver, error) {
	view, err := r.root.Catalog.GetProduct(ctx, r.rv.ProductID, "")
	if err != nil {
		return nil, r.root.fail(ctx, "review.product", err)
	}
	if view == nil {
		return nil, nil
	}
	return newProductView(r.root, *view), nil
}

// Cart

type cartResolver struct {
	root *Resolver
	snap domain.CartSnapshot
}

func (r *cartResolver) ID() gql.ID { return gql.ID(r.snap.CartID) }

func (r *cartResolver) Items() []*cartItemResolver {
	out := make([]*cartItemResolver, 0, len(r.snap.Lines))
	for _, line := range r.snap.Lines {
		out = append(out, &cartItemResolver{root: r.root, line: line})
	}
	return out
}

// Total is the line subtotal sum, kept for existing clients.
func (r *cartResolver) Total() float64      { return r.snap.Subtotal.Float64() }
func (r *cartResolver) ItemCount() int32    { return int32(r.snap.ItemCount) }
func (r *cartResolver) Subtotal() float64   { return r.snap.Subtotal.Float64() }
func (r *cartResolver) Shipping() float64   { return r.snap.Shipping.Float64() }
func (r *cartResolver) Tax() float64        { return r.snap.Tax.Float64() }
func (r *cartResolver) GrandTotal() float64 { return r.snap.Total.Float64() }

type cartItemResolver struct {
	root *Resolver
	line domain.SnapshotLine
}

func (r *cartItemResolver) ID() gql.ID { return gql.ID(r.line.Line.ID) }

// Product is null only when the product was removed from the catalog.
func (r *cartItemResolver) Product() *productResolver {
	if r.line.Line.Product == nil {
		return nil
	}
	return newProduct(r.root, *r.line.Line.Product)
}

func (r *cartItemResolver) Variant() *variantResolver {
	if r.line.Line.Variant == nil || r.line.Line.Product == nil {
		return nil
	}
	return &variantResolver{product: *r.line.Line.Product, v: *r.line.Line.Variant}
}

func (r *cartItemResolver) Quantity() int32    { return int32(r.line.Line.Quantity) }
func (r *cartItemResolver) UnitPrice() float64 { return r.line.UnitPrice.Float64() }
func (r *cartItemResolver) Subtotal() float64  { return r.line.Subtotal.Float64() }
func (r *cartItemResolver) Available() bool    { return r.line.Available() }

func (r *cartItemResolver) UnavailableReason() *string {
	if r.line.Available() {
		return nil
	}
	code := CodeInternal
	if gqlErr := toError(r.line.Unavailable); gqlErr != nil {
		code = gqlErr.Code
	}
	return &code
}

// Wishlist

type wishlistResolver struct {
	root *Resolver
	w    domain.Wishlist
}

func (r *wishlistResolver) ID() gql.ID { return gql.ID(r.w.ID) }

func (r *wishlistResolver) Items() []*wishlistItemResolver {
	out := make([]*wishlistItemResolver, 0, len(r.w.Items))
	for _, item := range r.w.Items {
		out = append(out, &wishlistItemResolver{root: r.root, item: item})
	}
	return out
}

type wishlistItemResolver struct {
	root *Resolver
	item domain.WishlistItem
}

func (r *wishlistItemResolver) ID() gql.ID { return gql.ID(r.item.ID) }

func (r *wishlistItemResolver) Product() *productResolver {
	if r.item.Product == nil {
		return nil
	}
	return newProduct(r.root, *r.item.Product)
}

func (r *wishlistItemResolver) AddedAt() DateTime { return newDateTime(r.item.AddedAt) }

// Orders

type orderResolver struct {
	root *Resolver
	o    domain.Order
}

func (r *orderResolver) ID() gql.ID                { return gql.ID(r.o.ID) }
func (r *orderResolver) OrderNumber() string       { return r.o.OrderNumber }
func (r *orderResolver) Status() string            { return string(r.o.Status) }
func (r *orderResolver) PaymentStatus() string     { return string(r.o.PaymentStatus) }
func (r *orderResolver) PaymentMethod() string     { return r.o.PaymentMethod }
func (r *orderResolver) ShippingAddressID() gql.ID { return gql.ID(r.o.ShippingAddressID) }
func (r *orderResolver) Subtotal() float64         { return r.o.Subtotal.Float64() }
func (r *orderResolver) Tax() float64              { return r.o.Tax.Float64() }
func (r *orderResolver) Shipping() float64         { return r.o.Shipping.Float64() }
func (r *orderResolver) Discount() float64         { return r.o.Discount.Float64() }
func (r *orderResolver) Total() float64            { return r.o.Total.Float64() }
func (r *orderResolver) CreatedAt() DateTime       { return newDateTime(r.o.CreatedAt) }
func (r *orderResolver) UpdatedAt() DateTime       { return newDateTime(r.o.UpdatedAt) }

func (r *orderResolver) Items() []*orderItemResolver {
	out := make([]*orderItemResolver, 0, len(r.o.Lines))
	for _, line := range r.o.Lines {
		out = append(out, &orderItemResolver{root: r.root, line: line})
	}
	return out
}

type orderItemResolver struct {
	root *Resolver
	line domain.OrderLine
}

func (r *orderItemResolver) ID() gql.ID        { return gql.ID(r.line.ID) }
func (r *orderItemResolver) ProductID() gql.ID { return gql.ID(r.line.ProductID) }

func (r *orderItemResolver) VariantID() *gql.ID {
	if r.line.VariantID == "" {
		return nil
	}
	id := gql.ID(r.line.VariantID)
	return &id
}

// Product resolves the current catalog entry; the price on the item stays
// the one frozen at checkout.
func (r *orderItemResolver) Product(ctx context.Context) (*productResolver, error) {
	view, err := r.root.Catalog.GetProduct(ctx, r.line.ProductID, "")
	if err != nil {
		return nil, r.root.fail(ctx, "orderItem.product", err)
	}
	if view == nil {
		return nil, nil
	}
	return newProductView(r.root, *view), nil
}

func (r *orderItemResolver) Quantity() int32   { return int32(r.line.Quantity) }
func (r *orderItemResolver) Price() float64    { return r.line.Price.Float64() }
func (r *orderItemResolver) Subtotal() float64 { return r.line.Subtotal().Float64() }
