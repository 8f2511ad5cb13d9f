package domain

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
	RoleSeller   Role = "SELLER"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

type Address struct {
	ID         string
	UserID     string
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	CreatedAt  time.Time
}

type Wishlist struct {
	ID     string
	UserID string
	Items  []WishlistItem
}

type WishlistItem struct {
	ID        string
	ProductID string
	Product   *Product
	AddedAt   time.Time
}
