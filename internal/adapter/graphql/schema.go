// Package graphql exposes the storefront services as a GraphQL API.
package graphql

import (
	gql "github.com/graph-gophers/graphql-go"
)

const maxQueryDepth = 12

const schemaSDL = `
schema {
	query: Query
	mutation: Mutation
}

scalar DateTime

enum UserRole {
	CUSTOMER
	ADMIN
	SELLER
}

enum OrderStatus {
	PENDING
	CONFIRMED
	PROCESSING
	SHIPPED
	DELIVERED
	CANCELLED
	REFUNDED
}

enum PaymentStatus {
	PENDING
	PAID
	FAILED
	REFUNDED
}

type User {
	id: ID!
	email: String!
	firstName: String!
	lastName: String!
	phone: String
	role: UserRole!
	isActive: Boolean!
	createdAt: DateTime!
}

type AuthPayload {
	token: String!
	user: User!
}

type Address {
	id: ID!
	fullName: String!
	line1: String!
	line2: String
	city: String!
	state: String!
	postalCode: String!
	country: String!
	phone: String
	createdAt: DateTime!
}

type Category {
	id: ID!
	name: String!
	slug: String!
	description: String
	image: String
	products: [Product!]!
}

type Product {
	id: ID!
	name: String!
	slug: String!
	description: String!
	sku: String!
	brand: String
	categoryId: String
	category: Category
	price: Float!
	salePrice: Float
	effectivePrice: Float!
	discountPercent: Int!
	stock: Int!
	isActive: Boolean!
	isFeatured: Boolean!
	hasVariants: Boolean!
	sizes: [String!]!
	colors: [String!]!
	variants: [ProductVariant!]!
	rating: Float!
	reviewCount: Int!
	reviews: [Review!]!
	createdAt: DateTime!
	updatedAt: DateTime!
}

type Review {
	id: ID!
	user: User
	product: Product
	rating: Int!
	title: String
	comment: String
	isVerified: Boolean!
	createdAt: DateTime!
}

type ProductVariant {
	id: ID!
	productId: String!
	sku: String!
	name: String!
	size: String
	color: String
	capacity: String
	price: Float
	salePrice: Float
	effectivePrice: Float!
	stock: Int!
	isActive: Boolean!
}

type ProductsResponse {
	products: [Product!]!
	total: Int!
	page: Int!
	pageSize: Int!
	hasMore: Boolean!
}

type Cart {
	id: ID!
	items: [CartItem!]!
	# Sum of line subtotals, before shipping and tax.
	total: Float!
	itemCount: Int!
	subtotal: Float!
	shipping: Float!
	tax: Float!
	grandTotal: Float!
}

# A line whose product or variant left the catalog after it was added stays
# in the cart with available false, a zero price and an error code in
# unavailableReason. It is excluded from the cart totals and blocks checkout
# until removed.
type CartItem {
	id: ID!
	product: Product
	variant: ProductVariant
	quantity: Int!
	unitPrice: Float!
	subtotal: Float!
	available: Boolean!
	unavailableReason: String
}

type Wishlist {
	id: ID!
	items: [WishlistItem!]!
}

type WishlistItem {
	id: ID!
	product: Product
	addedAt: DateTime!
}

type Order {
	id: ID!
	orderNumber: String!
	status: OrderStatus!
	paymentStatus: PaymentStatus!
	paymentMethod: String!
	shippingAddressId: ID!
	subtotal: Float!
	tax: Float!
	shipping: Float!
	discount: Float!
	total: Float!
	items: [OrderItem!]!
	createdAt: DateTime!
	updatedAt: DateTime!
}

type OrderItem {
	id: ID!
	productId: ID!
	variantId: ID
	product: Product
	quantity: Int!
	price: Float!
	subtotal: Float!
}

input RegisterInput {
	email: String!
	password: String!
	firstName: String!
	lastName: String!
	phone: String
}

input AddressInput {
	fullName: String!
	line1: String!
	line2: String
	city: String!
	state: String!
	postalCode: String!
	country: String!
	phone: String
}

input ProductFilterInput {
	categoryId: String
	minPrice: Float
	maxPrice: Float
	brand: String
	isFeatured: Boolean
}

type Query {
	me: User
	products(page: Int, pageSize: Int, filter: ProductFilterInput, sortBy: String): ProductsResponse!
	product(id: ID, slug: String): Product
	featuredProducts: [Product!]!
	categories: [Category!]!
	category(id: ID, slug: String): Category
	myCart: Cart
	myWishlist: Wishlist
	myOrders: [Order!]!
	order(id: ID!): Order
	myAddresses: [Address!]!
}

type Mutation {
	register(input: RegisterInput!): AuthPayload!
	login(email: String!, password: String!): AuthPayload!
	addAddress(input: AddressInput!): Address!

	addToCart(productId: ID!, quantity: Int!, variantId: ID): Cart!
	updateCartItem(productId: ID!, quantity: Int!, variantId: ID): Cart!
	removeFromCart(productId: ID!, variantId: ID): Cart!
	clearCart: Boolean!

	addToWishlist(productId: ID!): Wishlist!
	removeFromWishlist(productId: ID!): Wishlist!

	createOrder(addressId: ID!, paymentMethod: String!): Order!

	addReview(productId: ID!, rating: Int!, title: String, comment: String): Review!
}
`

// NewSchema binds the resolver to the storefront schema. It fails if any
// schema field lacks a resolver method.
func NewSchema(r *Resolver) (*gql.Schema, error) {
	return gql.ParseSchema(schemaSDL, r, gql.MaxDepth(maxQueryDepth))
}
