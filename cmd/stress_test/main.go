package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const (
	initialStock  = 20
	totalRequests = 50
	maxRetries    = 50
)

type result struct {
	success atomic.Int32
	fail    atomic.Int32
	elapsed time.Duration
}

func main() {
	driver := flag.String("driver", "memory", "storage driver: memory or mysql")
	dsn := flag.String("dsn", "root:root@tcp(localhost:3306)/storefront?parseTime=true", "MySQL DSN")
	flag.Parse()

	ctx := context.Background()
	store, err := openStore(ctx, *driver, *dsn)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}

	logger := zap.NewNop()
	carts := service.NewCartService(store, nil, pricing.DefaultPolicy(), logger)
	orders := service.NewOrderService(store, nil, pricing.DefaultPolicy(), service.DefaultPaymentMethods, logger)

	// One cart, many concurrent adds: the line never exceeds stock.
	product := mustSeedProduct(ctx, store)
	shopper, _ := mustSeedCustomer(ctx, store)
	adds := run(totalRequests, func(int) error {
		return retrying(func() error {
			_, err := carts.AddLine(ctx, shopper, product.ID, 1, "")
			return err
		})
	})
	snap, err := carts.Get(ctx, shopper)
	if err != nil {
		log.Fatalf("failed to read cart: %v", err)
	}
	report("CONCURRENT ADD TO ONE CART", adds)
	check(snap.ItemCount == initialStock, fmt.Sprintf("cart holds %d units (stock %d)", snap.ItemCount, initialStock))

	// Many buyers, one unit each, concurrent checkout: never oversold.
	product = mustSeedProduct(ctx, store)
	type buyer struct {
		principal domain.Principal
		addressID string
	}
	buyers := make([]buyer, totalRequests)
	for i := range buyers {
		p, addr := mustSeedCustomer(ctx, store)
		if _, err := carts.AddLine(ctx, p, product.ID, 1, ""); err != nil {
			log.Fatalf("failed to fill cart: %v", err)
		}
		buyers[i] = buyer{principal: p, addressID: addr.ID}
	}
	checkouts := run(totalRequests, func(i int) error {
		return retrying(func() error {
			_, err := orders.CreateOrder(ctx, buyers[i].principal, buyers[i].addressID, "COD")
			return err
		})
	})
	report("CONCURRENT CHECKOUT", checkouts)

	final, err := store.GetProduct(ctx, product.ID)
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}
	check(checkouts.success.Load() == initialStock, fmt.Sprintf("%d orders placed", checkouts.success.Load()))
	check(final.Stock == 0, fmt.Sprintf("final stock %d", final.Stock))
}

func run(n int, fn func(i int) error) *result {
	res := &result{}
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				res.fail.Add(1)
				return
			}
			res.success.Add(1)
		}(i)
	}
	wg.Wait()
	res.elapsed = time.Since(start)
	return res
}

// retrying repeats fn while it loses optimistic-lock races.
func retrying(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = fn(); !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
	}
	return err
}

func report(name string, res *result) {
	fmt.Printf("========== %s ==========\n", name)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", res.success.Load())
	fmt.Printf("Failed:           %d\n", res.fail.Load())
	fmt.Printf("Duration:         %v\n", res.elapsed)
}

func check(ok bool, what string) {
	if ok {
		fmt.Println("PASS:", what)
		return
	}
	fmt.Println("FAIL:", what)
}

func openStore(ctx context.Context, driver, dsn string) (port.Store, error) {
	if driver == "memory" {
		return storage.NewMemoryAdapter(), nil
	}
	db, err := storage.OpenMySQL(ctx, dsn, 50, 25)
	if err != nil {
		return nil, err
	}
	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Migrate(ctx); err != nil {
		return nil, err
	}
	return adapter, nil
}

func mustSeedProduct(ctx context.Context, store port.Store) domain.Product {
	now := time.Now()
	id := uuid.NewString()
	p := domain.Product{
		ID: id, Name: "Flash Sale Item", Slug: "flash-sale-" + id, SKU: "FS-" + id,
		Price: 99900, Stock: initialStock, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.UpsertProduct(ctx, p); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}
	return p
}

func mustSeedCustomer(ctx context.Context, store port.Store) (domain.Principal, domain.Address) {
	now := time.Now()
	id := uuid.NewString()
	user := domain.User{
		ID: id, Email: id + "@stress.test", PasswordHash: "-", FirstName: "Stress", LastName: "Test",
		Role: domain.RoleCustomer, IsActive: true, CreatedAt: now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	addr := domain.Address{
		ID: uuid.NewString(), UserID: id, FullName: "Stress Test", Line1: "1 Load Lane",
		City: "Pune", State: "MH", PostalCode: "411001", Country: "IN", CreatedAt: now,
	}
	if err := store.CreateAddress(ctx, addr); err != nil {
		log.Fatalf("failed to seed address: %v", err)
	}
	return domain.Principal{UserID: id, Email: user.Email, Role: user.Role}, addr
}
