package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrLockWait       = 1205
	mysqlErrDeadlock       = 1213
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLAdapter struct {
	*mysqlRepo
	db *sql.DB
}

var _ port.Store = (*MySQLAdapter)(nil)

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{mysqlRepo: &mysqlRepo{q: db}, db: db}
}

// OpenMySQL opens a pooled connection and checks it is reachable.
func OpenMySQL(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate creates any missing tables.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, repo port.DatabaseRepository) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &mysqlRepo{q: tx}); err != nil {
		return translateLockErr(err)
	}

	if err := tx.Commit(); err != nil {
		return translateLockErr(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// translateLockErr reports deadlocks and lock wait timeouts as
// ErrOptimisticLock so callers treat them as a retryable conflict.
func translateLockErr(err error) error {
	if errors.Is(err, port.ErrOptimisticLock) {
		return err
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockWait) {
		return fmt.Errorf("%w: %w", port.ErrOptimisticLock, err)
	}
	return err
}

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}

type mysqlRepo struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

const productColumns = `id, name, slug, description, sku, brand, category_id, price, sale_price,
	stock, has_variants, is_active, is_featured, version, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p    domain.Product
		sale sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.SKU, &p.Brand, &p.CategoryID,
		&p.Price, &sale, &p.Stock, &p.HasVariants, &p.IsActive, &p.IsFeatured, &p.Version,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.SalePrice = moneyPtr(sale)
	return &p, nil
}

const variantColumns = `id, product_id, sku, name, size, color, capacity, price, sale_price,
	stock, is_active, version`

func scanVariant(row rowScanner) (*domain.Variant, error) {
	var (
		v           domain.Variant
		price, sale sql.NullInt64
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Size, &v.Color, &v.Capacity,
		&price, &sale, &v.Stock, &v.IsActive, &v.Version)
	if err != nil {
		return nil, err
	}
	v.Price, v.SalePrice = moneyPtr(price), moneyPtr(sale)
	return &v, nil
}

func (r *mysqlRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (r *mysqlRepo) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

var productSortColumns = map[string]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByPrice:     "price",
	domain.SortByName:      "name",
}

func (r *mysqlRepo) ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int, error) {
	where := []string{"is_active = TRUE"}
	var args []any
	if query.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, query.CategoryID)
	}
	if query.Brand != "" {
		where = append(where, "brand = ?")
		args = append(args, query.Brand)
	}
	if query.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, int64(*query.MinPrice))
	}
	if query.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, int64(*query.MaxPrice))
	}
	if query.IsFeatured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, *query.IsFeatured)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	column, ok := productSortColumns[query.SortBy]
	if !ok {
		column = "created_at"
	}
	stmt := `SELECT ` + productColumns + ` FROM products WHERE ` + cond +
		` ORDER BY ` + column + ` DESC, id`
	if query.Limit > 0 {
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, query.Limit, query.Offset)
	}

	rows, err := r.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *mysqlRepo) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	v, err := scanVariant(r.q.QueryRowContext(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query variant: %w", err)
	}
	return v, nil
}

func (r *mysqlRepo) ListVariants(ctx context.Context, productID string, activeOnly bool) ([]domain.Variant, error) {
	stmt := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = ?`
	if activeOnly {
		stmt += ` AND is_active = TRUE`
	}
	rows, err := r.q.QueryContext(ctx, stmt+` ORDER BY sku`, productID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, *v)
	}
	return variants, rows.Err()
}

func (r *mysqlRepo) DecrementProductStock(ctx context.Context, productID string, quantity, version int) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, version = version + 1, updated_at = NOW(3)
		WHERE id = ? AND version = ? AND stock >= ?`,
		quantity, productID, version, quantity,
	)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrOptimisticLock
	}
	return nil
}

func (r *mysqlRepo) DecrementVariantStock(ctx context.Context, variantID string, quantity, version int) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE product_variants
		SET stock = stock - ?, version = version + 1
		WHERE id = ? AND version = ? AND stock >= ?`,
		quantity, variantID, version, quantity,
	)
	if err != nil {
		return fmt.Errorf("update variant stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrOptimisticLock
	}
	return nil
}

func (r *mysqlRepo) UpsertProduct(ctx context.Context, p domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), slug = VALUES(slug), description = VALUES(description),
			sku = VALUES(sku), brand = VALUES(brand), category_id = VALUES(category_id),
			price = VALUES(price), sale_price = VALUES(sale_price), stock = VALUES(stock),
			has_variants = VALUES(has_variants), is_active = VALUES(is_active),
			is_featured = VALUES(is_featured), version = version + 1, updated_at = VALUES(updated_at)`,
		p.ID, p.Name, p.Slug, p.Description, p.SKU, p.Brand, p.CategoryID,
		int64(p.Price), nullMoney(p.SalePrice), p.Stock, p.HasVariants, p.IsActive, p.IsFeatured,
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (r *mysqlRepo) UpsertVariant(ctx context.Context, v domain.Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO product_variants (`+variantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			product_id = VALUES(product_id), sku = VALUES(sku), name = VALUES(name),
			size = VALUES(size), color = VALUES(color), capacity = VALUES(capacity),
			price = VALUES(price), sale_price = VALUES(sale_price), stock = VALUES(stock),
			is_active = VALUES(is_active), version = version + 1`,
		v.ID, v.ProductID, v.SKU, v.Name, v.Size, v.Color, v.Capacity,
		nullMoney(v.Price), nullMoney(v.SalePrice), v.Stock, v.IsActive, v.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert variant: %w", err)
	}
	return nil
}

const categoryColumns = `id, name, slug, description, image, is_active, created_at`

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c           domain.Category
		description sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &description, &c.Image, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	return &c, nil
}

func (r *mysqlRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE is_active = TRUE ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *mysqlRepo) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (r *mysqlRepo) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := scanCategory(r.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (r *mysqlRepo) UpsertCategory(ctx context.Context, c domain.Category) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), slug = VALUES(slug), description = VALUES(description),
			image = VALUES(image), is_active = VALUES(is_active)`,
		c.ID, c.Name, c.Slug, nullString(c.Description), c.Image, c.IsActive, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

func (r *mysqlRepo) CreateReview(ctx context.Context, review domain.Review) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, product_id, rating, title, comment, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.ProductID, review.Rating, review.Title,
		nullString(review.Comment), review.IsVerified, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *mysqlRepo) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT rv.id, rv.user_id, rv.product_id, rv.rating, rv.title, rv.comment, rv.is_verified, rv.created_at,
			u.id, u.email, u.password_hash, u.first_name, u.last_name, u.phone, u.role, u.is_active, u.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = ?
		ORDER BY rv.created_at DESC, rv.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var (
			rv      domain.Review
			u       domain.User
			comment sql.NullString
		)
		err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Title, &comment, &rv.IsVerified, &rv.CreatedAt,
			&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rv.Comment = comment.String
		rv.User = &u
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *mysqlRepo) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.loadCart(ctx, userID, "")
}

func (r *mysqlRepo) LockCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.loadCart(ctx, userID, " FOR UPDATE")
}

func (r *mysqlRepo) loadCart(ctx context.Context, userID, lockClause string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts WHERE user_id = ?`+lockClause, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, cart_id, product_id, variant_id, quantity, created_at
		FROM cart_items WHERE cart_id = ?
		ORDER BY created_at, id`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	for rows.Next() {
		var (
			line      domain.CartLine
			variantID sql.NullString
		)
		if err := rows.Scan(&line.ID, &line.CartID, &line.ProductID, &variantID, &line.Quantity, &line.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		line.VariantID = variantID.String
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cart.Lines {
		line := &cart.Lines[i]
		if line.Product, err = r.GetProduct(ctx, line.ProductID); err != nil {
			return nil, err
		}
		if line.VariantID != "" {
			if line.Variant, err = r.GetVariant(ctx, line.VariantID); err != nil {
				return nil, err
			}
		}
	}
	return &cart, nil
}

func (r *mysqlRepo) EnsureCart(ctx context.Context, userID string) error {
	now := time.Now()
	_, err := r.q.ExecContext(ctx, `
		INSERT IGNORE INTO carts (id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (r *mysqlRepo) SaveCartLine(ctx context.Context, line domain.CartLine) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, variant_id, variant_key, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)`,
		line.ID, line.CartID, line.ProductID, nullString(line.VariantID), line.VariantID,
		line.Quantity, line.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save cart item: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `UPDATE carts SET updated_at = NOW(3) WHERE id = ?`, line.CartID)
	return err
}

func (r *mysqlRepo) DeleteCartLine(ctx context.Context, lineID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, lineID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *mysqlRepo) ClearCart(ctx context.Context, cartID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *mysqlRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, user_id, shipping_address_id, payment_method,
			status, payment_status, subtotal, shipping, tax, discount, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.UserID, order.ShippingAddressID, order.PaymentMethod,
		order.Status, order.PaymentStatus, int64(order.Subtotal), int64(order.Shipping),
		int64(order.Tax), int64(order.Discount), int64(order.Total), order.CreatedAt, order.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return port.ErrDuplicateOrderNumber
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			line.ID, order.ID, line.ProductID, nullString(line.VariantID), line.Quantity, int64(line.Price),
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, order_number, user_id, shipping_address_id, payment_method, status,
	payment_status, subtotal, shipping, tax, discount, total, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.ShippingAddressID, &o.PaymentMethod,
		&o.Status, &o.PaymentStatus, &o.Subtotal, &o.Shipping, &o.Tax, &o.Discount, &o.Total,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *mysqlRepo) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := scanOrder(r.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND user_id = ?`, orderID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if order.Lines, err = r.orderLines(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *mysqlRepo) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Lines, err = r.orderLines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *mysqlRepo) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			line      domain.OrderLine
			variantID sql.NullString
		)
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &variantID, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		line.VariantID = variantID.String
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, is_active, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mysqlRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Role, u.IsActive, u.CreatedAt,
	)
	if isDuplicateEntry(err) {
		return port.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *mysqlRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (r *mysqlRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

const addressColumns = `id, user_id, full_name, line1, line2, city, state, postal_code, country, phone, created_at`

func scanAddress(row rowScanner) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Line1, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *mysqlRepo) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	a, err := scanAddress(r.q.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = ? AND user_id = ?`, addressID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

func (r *mysqlRepo) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	return addresses, rows.Err()
}

func (r *mysqlRepo) CreateAddress(ctx context.Context, a domain.Address) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.FullName, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *mysqlRepo) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := r.q.QueryRowContext(ctx, `SELECT id, user_id FROM wishlists WHERE user_id = ?`, userID).
		Scan(&w.ID, &w.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, product_id, added_at FROM wishlist_items
		WHERE wishlist_id = ? ORDER BY added_at, id`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("query wishlist items: %w", err)
	}
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.AddedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		w.Items = append(w.Items, item)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range w.Items {
		if w.Items[i].Product, err = r.GetProduct(ctx, w.Items[i].ProductID); err != nil {
			return nil, err
		}
	}
	return &w, nil
}

func (r *mysqlRepo) EnsureWishlist(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `INSERT IGNORE INTO wishlists (id, user_id) VALUES (?, ?)`,
		uuid.NewString(), userID)
	if err != nil {
		return fmt.Errorf("insert wishlist: %w", err)
	}
	return nil
}

func (r *mysqlRepo) AddWishlistItem(ctx context.Context, wishlistID, productID string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT IGNORE INTO wishlist_items (id, wishlist_id, product_id, added_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), wishlistID, productID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

func (r *mysqlRepo) RemoveWishlistItem(ctx context.Context, wishlistID, productID string) (bool, error) {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE wishlist_id = ? AND product_id = ?`, wishlistID, productID)
	if err != nil {
		return false, fmt.Errorf("delete wishlist item: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func nullMoney(m *domain.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}

func moneyPtr(n sql.NullInt64) *domain.Money {
	if !n.Valid {
		return nil
	}
	return domain.Money(n.Int64).Ptr()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
