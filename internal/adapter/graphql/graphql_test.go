package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/auth"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
	"github.com/rl1809/storefront/internal/core/service"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	store  *storage.MemoryAdapter
	tokens *auth.TokenManager
}

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := storage.NewMemoryAdapter()
	cache := storage.NewMemoryCache(time.Hour)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	logger := zap.NewNop()
	policy := pricing.DefaultPolicy()

	resolver := NewResolver(Services{
		Catalog:   service.NewCatalogService(store),
		Carts:     service.NewCartService(store, cache, policy, logger),
		Orders:    service.NewOrderService(store, cache, policy, service.DefaultPaymentMethods, logger),
		Users:     service.NewUserService(store, auth.NewBcryptHasher(4), tokens, logger),
		Wishlists: service.NewWishlistService(store),
		Reviews:   service.NewReviewService(store, logger),
	}, logger)
	schema, err := NewSchema(resolver)
	require.NoError(t, err)

	server := httptest.NewServer(auth.Middleware(tokens, logger)(&relay.Handler{Schema: schema}))
	t.Cleanup(server.Close)

	return &testAPI{t: t, server: server, store: store, tokens: tokens}
}

func (a *testAPI) do(token, query string, variables map[string]interface{}) gqlResponse {
	a.t.Helper()

	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	require.NoError(a.t, err)

	req, err := http.NewRequest(http.MethodPost, a.server.URL, bytes.NewReader(body))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out gqlResponse
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (a *testAPI) token(userID string) string {
	a.t.Helper()
	token, err := a.tokens.Issue(domain.Principal{UserID: userID, Email: userID + "@example.com", Role: domain.RoleCustomer})
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) seedProduct(price domain.Money, sale *domain.Money, stock int) domain.Product {
	a.t.Helper()
	now := time.Now()
	id := uuid.NewString()
	p := domain.Product{
		ID: id, Name: "Headphones", Slug: "headphones-" + id, SKU: "SKU-" + id,
		Price: price, SalePrice: sale, Stock: stock,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(a.t, a.store.UpsertProduct(context.Background(), p))
	return p
}

func errorCode(t *testing.T, resp gqlResponse) string {
	t.Helper()
	require.NotEmpty(t, resp.Errors, "expected an error")
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

func TestNewSchema(t *testing.T) {
	_, err := NewSchema(NewResolver(Services{}, zap.NewNop()))
	require.NoError(t, err)
}

func TestMyCart_Unauthenticated(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do("", `{ myCart { id } }`, nil)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, resp))

	resp = api.do("not-a-token", `{ myCart { id } }`, nil)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, resp))
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	product := api.seedProduct(299900, domain.Money(249900).Ptr(), 10)

	register := api.do("", `mutation($input: RegisterInput!) {
		register(input: $input) { token user { id email role } }
	}`, map[string]interface{}{"input": map[string]interface{}{
		"email": "Buyer@Example.com", "password": "secret123", "firstName": "Asha", "lastName": "Rao",
	}})
	require.Empty(t, register.Errors)
	var registered struct {
		Register struct {
			Token string
			User  struct{ ID, Email, Role string }
		}
	}
	require.NoError(t, json.Unmarshal(register.Data, &registered))
	assert.Equal(t, "buyer@example.com", registered.Register.User.Email)
	assert.Equal(t, "CUSTOMER", registered.Register.User.Role)
	token := registered.Register.Token

	address := api.do(token, `mutation {
		addAddress(input: {fullName: "Asha Rao", line1: "12 MG Road", city: "Pune", state: "MH", postalCode: "411001", country: "IN"}) { id }
	}`, nil)
	require.Empty(t, address.Errors)
	var added struct{ AddAddress struct{ ID string } }
	require.NoError(t, json.Unmarshal(address.Data, &added))

	cartResp := api.do(token, `mutation($id: ID!) {
		addToCart(productId: $id, quantity: 2) {
			total itemCount subtotal shipping tax grandTotal
			items { quantity unitPrice subtotal product { id effectivePrice } variant { id } }
		}
	}`, map[string]interface{}{"id": product.ID})
	require.Empty(t, cartResp.Errors)
	var cart struct {
		AddToCart struct {
			Total, Subtotal, Shipping, Tax, GrandTotal float64
			ItemCount                                  int
			Items                                      []struct {
				Quantity  int
				UnitPrice float64
				Subtotal  float64
				Product   struct{ ID string }
				Variant   *struct{ ID string }
			}
		}
	}
	require.NoError(t, json.Unmarshal(cartResp.Data, &cart))
	c := cart.AddToCart
	assert.Equal(t, 2, c.ItemCount)
	assert.InDelta(t, 4998.0, c.Total, 0.001)
	assert.InDelta(t, 4998.0, c.Subtotal, 0.001)
	assert.InDelta(t, 0.0, c.Shipping, 0.001)
	assert.InDelta(t, 899.64, c.Tax, 0.001)
	assert.InDelta(t, 5897.64, c.GrandTotal, 0.001)
	require.Len(t, c.Items, 1)
	assert.InDelta(t, 2499.0, c.Items[0].UnitPrice, 0.001)
	assert.Equal(t, product.ID, c.Items[0].Product.ID)
	assert.Nil(t, c.Items[0].Variant)

	orderResp := api.do(token, `mutation($address: ID!) {
		createOrder(addressId: $address, paymentMethod: "cod") {
			id orderNumber status paymentStatus paymentMethod total
			items { productId quantity price subtotal product { name } }
		}
	}`, map[string]interface{}{"address": added.AddAddress.ID})
	require.Empty(t, orderResp.Errors)
	var order struct {
		CreateOrder struct {
			ID, OrderNumber, Status, PaymentStatus, PaymentMethod string
			Total                                                 float64
			Items                                                 []struct {
				ProductID string
				Quantity  int
				Price     float64
				Product   *struct{ Name string }
			}
		}
	}
	require.NoError(t, json.Unmarshal(orderResp.Data, &order))
	o := order.CreateOrder
	assert.Regexp(t, `^NOV\d+-[0-9A-F]{8}$`, o.OrderNumber)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, "PENDING", o.PaymentStatus)
	assert.Equal(t, "COD", o.PaymentMethod)
	assert.InDelta(t, 5897.64, o.Total, 0.001)
	require.Len(t, o.Items, 1)
	assert.Equal(t, product.ID, o.Items[0].ProductID)
	require.NotNil(t, o.Items[0].Product)
	assert.Equal(t, "Headphones", o.Items[0].Product.Name)

	emptied := api.do(token, `{ myCart { itemCount items { id } } }`, nil)
	require.Empty(t, emptied.Errors)
	assert.JSONEq(t, `{"myCart":{"itemCount":0,"items":[]}}`, string(emptied.Data))

	stock, err := api.store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.Stock)

	// Another user cannot see the order.
	other := api.do(api.token("someone-else"), `query($id: ID!) { order(id: $id) { id } }`,
		map[string]interface{}{"id": o.ID})
	require.Empty(t, other.Errors)
	assert.JSONEq(t, `{"order":null}`, string(other.Data))
}

func TestAddToCart_ErrorCodes(t *testing.T) {
	api := newTestAPI(t)
	product := api.seedProduct(10000, nil, 3)
	token := api.token("user-1")

	tests := []struct {
		name      string
		productID string
		quantity  int
		code      string
	}{
		{"zero quantity", product.ID, 0, "INVALID_QUANTITY"},
		{"over stock", product.ID, 4, "OUT_OF_STOCK"},
		{"unknown product", "missing", 1, "PRODUCT_NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.do(token, `mutation($id: ID!, $qty: Int!) { addToCart(productId: $id, quantity: $qty) { id } }`,
				map[string]interface{}{"id": tc.productID, "qty": tc.quantity})
			assert.Equal(t, tc.code, errorCode(t, resp))
			assert.Equal(t, false, resp.Errors[0].Extensions["retryable"])
		})
	}
}

func TestCreateOrder_ErrorCodes(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, api.store.CreateAddress(context.Background(), domain.Address{
		ID: "addr-1", UserID: "user-1", FullName: "Asha Rao", Line1: "12 MG Road",
		City: "Pune", PostalCode: "411001", Country: "IN", CreatedAt: time.Now(),
	}))
	token := api.token("user-1")

	resp := api.do(token, `mutation { createOrder(addressId: "addr-1", paymentMethod: "COD") { id } }`, nil)
	assert.Equal(t, "EMPTY_CART", errorCode(t, resp))

	resp = api.do(token, `mutation { createOrder(addressId: "addr-2", paymentMethod: "COD") { id } }`, nil)
	assert.Equal(t, "ADDRESS_NOT_FOUND", errorCode(t, resp))

	resp = api.do(token, `mutation { createOrder(addressId: "addr-1", paymentMethod: "BARTER") { id } }`, nil)
	assert.Equal(t, "INVALID_PAYMENT_METHOD", errorCode(t, resp))
}

func TestProduct_VariantsAndPricing(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	product := api.seedProduct(59900, domain.Money(39900).Ptr(), 0)
	product.HasVariants = true
	require.NoError(t, api.store.UpsertProduct(ctx, product))

	variants := []domain.Variant{
		{ID: "v-s", ProductID: product.ID, SKU: "TEE-S", Name: "Small", Size: "S", Color: "Black", Stock: 5, IsActive: true},
		{ID: "v-m", ProductID: product.ID, SKU: "TEE-M", Name: "Medium", Size: "M", Color: "Black",
			Price: domain.Money(64900).Ptr(), SalePrice: domain.Money(44900).Ptr(), Stock: 5, IsActive: true},
		{ID: "v-l", ProductID: product.ID, SKU: "TEE-L", Name: "Large", Size: "L", Stock: 5, IsActive: false},
	}
	for _, v := range variants {
		require.NoError(t, api.store.UpsertVariant(ctx, v))
	}

	resp := api.do("", `query($id: ID) {
		product(id: $id) {
			effectivePrice discountPercent hasVariants sizes colors
			variants { id effectivePrice }
		}
	}`, map[string]interface{}{"id": product.ID})
	require.Empty(t, resp.Errors)

	var out struct {
		Product struct {
			EffectivePrice  float64
			DiscountPercent int
			HasVariants     bool
			Sizes, Colors   []string
			Variants        []struct {
				ID             string
				EffectivePrice float64
			}
		}
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	p := out.Product
	assert.InDelta(t, 399.0, p.EffectivePrice, 0.001)
	assert.Equal(t, 33, p.DiscountPercent)
	assert.True(t, p.HasVariants)
	assert.ElementsMatch(t, []string{"S", "M"}, p.Sizes)
	assert.Equal(t, []string{"Black"}, p.Colors)

	prices := map[string]float64{}
	for _, v := range p.Variants {
		prices[v.ID] = v.EffectivePrice
	}
	assert.Len(t, prices, 2)
	assert.InDelta(t, 399.0, prices["v-s"], 0.001)
	assert.InDelta(t, 449.0, prices["v-m"], 0.001)
}

func TestProducts_Paging(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 3; i++ {
		api.seedProduct(domain.Money(1000*(i+1)), nil, 1)
	}

	resp := api.do("", `{ products(page: 1, pageSize: 2, sortBy: "price") { total page pageSize hasMore products { price } } }`, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"products":{"total":3,"page":1,"pageSize":2,"hasMore":true,"products":[{"price":30},{"price":20}]}}`,
		string(resp.Data))
}

func TestWishlist(t *testing.T) {
	api := newTestAPI(t)
	product := api.seedProduct(1000, nil, 1)
	token := api.token("user-1")

	for i := 0; i < 2; i++ {
		resp := api.do(token, `mutation($id: ID!) { addToWishlist(productId: $id) { items { product { id } } } }`,
			map[string]interface{}{"id": product.ID})
		require.Empty(t, resp.Errors)
	}

	resp := api.do(token, `{ myWishlist { items { product { id } } } }`, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"myWishlist":{"items":[{"product":{"id":"`+product.ID+`"}}]}}`, string(resp.Data))

	resp = api.do(token, `mutation($id: ID!) { removeFromWishlist(productId: $id) { items { id } } }`,
		map[string]interface{}{"id": product.ID})
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"removeFromWishlist":{"items":[]}}`, string(resp.Data))
}

func TestFail(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewResolver(Services{}, zap.New(core))
	ctx := context.Background()

	err := r.fail(ctx, "addToCart", errors.New("connection reset"))
	var gqlErr *Error
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, CodeInternal, gqlErr.Code)
	assert.NotContains(t, gqlErr.Message, "connection reset")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "addToCart", logs.All()[0].ContextMap()["operation"])

	err = r.fail(ctx, "createOrder", errors.Join(errors.New("tx"), domain.ErrConcurrentModification))
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "CONCURRENT_MODIFICATION", gqlErr.Code)
	assert.True(t, gqlErr.Retryable)
	assert.Equal(t, 1, logs.Len())
}

func TestCategories(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, api.store.UpsertCategory(ctx, domain.Category{
		ID: "electronics", Name: "Electronics", Slug: "electronics", Description: "Gadgets", IsActive: true, CreatedAt: now,
	}))
	require.NoError(t, api.store.UpsertCategory(ctx, domain.Category{
		ID: "retired", Name: "Retired", Slug: "retired", CreatedAt: now,
	}))
	product := api.seedProduct(10000, nil, 5)
	product.CategoryID = "electronics"
	require.NoError(t, api.store.UpsertProduct(ctx, product))
	api.seedProduct(20000, nil, 5)

	resp := api.do("", `{ categories { id name description image } }`, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"categories":[{"id":"electronics","name":"Electronics","description":"Gadgets","image":null}]}`, string(resp.Data))

	resp = api.do("", `{ category(slug: "electronics") { name products { id category { slug } } } }`, nil)
	require.Empty(t, resp.Errors)
	var out struct {
		Category struct {
			Name     string
			Products []struct {
				ID       string
				Category struct{ Slug string }
			}
		}
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	require.Len(t, out.Category.Products, 1)
	assert.Equal(t, product.ID, out.Category.Products[0].ID)
	assert.Equal(t, "electronics", out.Category.Products[0].Category.Slug)

	resp = api.do("", `{ category(id: "retired") { id } }`, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"category":null}`, string(resp.Data))
}

func TestAddReview(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	product := api.seedProduct(10000, nil, 5)
	require.NoError(t, api.store.CreateUser(ctx, domain.User{
		ID: "user-1", Email: "user-1@example.com", PasswordHash: "-", FirstName: "Meera",
		Role: domain.RoleCustomer, IsActive: true, CreatedAt: time.Now(),
	}))
	const addReview = `mutation($id: ID!, $rating: Int!) {
		addReview(productId: $id, rating: $rating, title: "Great sound") { rating title comment isVerified user { firstName } product { id } }
	}`

	resp := api.do("", addReview, map[string]interface{}{"id": product.ID, "rating": 5})
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, resp))

	token := api.token("user-1")
	resp = api.do(token, addReview, map[string]interface{}{"id": product.ID, "rating": 9})
	assert.Equal(t, "BAD_USER_INPUT", errorCode(t, resp))

	resp = api.do(token, addReview, map[string]interface{}{"id": "missing", "rating": 5})
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, resp))

	resp = api.do(token, addReview, map[string]interface{}{"id": product.ID, "rating": 5})
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"addReview":{"rating":5,"title":"Great sound","comment":null,"isVerified":false,
		"user":{"firstName":"Meera"},"product":{"id":"`+product.ID+`"}}}`, string(resp.Data))

	resp = api.do(token, addReview, map[string]interface{}{"id": product.ID, "rating": 4})
	require.Empty(t, resp.Errors)

	resp = api.do("", `query($id: ID) { product(id: $id) { rating reviewCount reviews { rating } } }`,
		map[string]interface{}{"id": product.ID})
	require.Empty(t, resp.Errors)
	var out struct {
		Product struct {
			Rating      float64
			ReviewCount int
			Reviews     []struct{ Rating int }
		}
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.InDelta(t, 4.5, out.Product.Rating, 0.001)
	assert.Equal(t, 2, out.Product.ReviewCount)
	assert.Len(t, out.Product.Reviews, 2)
}

func TestMyCart_UnavailableLine(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	product := api.seedProduct(10000, nil, 0)
	product.HasVariants = true
	require.NoError(t, api.store.UpsertProduct(ctx, product))
	variant := domain.Variant{ID: "v-1", ProductID: product.ID, SKU: "SKU-V1", Name: "Blue", Stock: 5, IsActive: true}
	require.NoError(t, api.store.UpsertVariant(ctx, variant))
	other := api.seedProduct(20000, nil, 5)
	token := api.token("user-1")

	resp := api.do(token, `mutation($id: ID!) { addToCart(productId: $id, quantity: 1, variantId: "v-1") { id } }`,
		map[string]interface{}{"id": product.ID})
	require.Empty(t, resp.Errors)

	variant.IsActive = false
	require.NoError(t, api.store.UpsertVariant(ctx, variant))

	resp = api.do(token, `{ myCart { itemCount subtotal items { available unavailableReason unitPrice } } }`, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"myCart":{"itemCount":0,"subtotal":0,
		"items":[{"available":false,"unavailableReason":"INVALID_VARIANT","unitPrice":0}]}}`, string(resp.Data))

	resp = api.do(token, `mutation($id: ID!) { addToCart(productId: $id, quantity: 1) { itemCount items { available } } }`,
		map[string]interface{}{"id": other.ID})
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"addToCart":{"itemCount":1,"items":[{"available":false},{"available":true}]}}`, string(resp.Data))
}
