package main

import (
	"context"
	"errors"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/auth"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const (
	demoEmail    = "demo@novacart.com"
	demoPassword = "demo123"
)

type seedProduct struct {
	product  domain.Product
	variants []domain.Variant
}

// Fixed IDs keep re-runs idempotent.
func categories(now time.Time) []domain.Category {
	category := func(id, name, description, image string) domain.Category {
		return domain.Category{ID: id, Name: name, Slug: id, Description: description, Image: image, IsActive: true, CreatedAt: now}
	}
	return []domain.Category{
		category("electronics", "Electronics", "Latest electronic gadgets and devices",
			"https://images.unsplash.com/photo-1498049794561-7780e7231661?w=500"),
		category("fashion", "Fashion", "Trendy clothing and accessories",
			"https://images.unsplash.com/photo-1445205170230-053b83016050?w=500"),
		category("home-living", "Home & Living", "Home decor and furniture",
			"https://images.unsplash.com/photo-1556228720-195a672e8a03?w=500"),
	}
}

func catalog(now time.Time) []seedProduct {
	product := func(id, name, slug, sku, brand, category, description string, price domain.Money, sale *domain.Money, stock int, featured bool) domain.Product {
		return domain.Product{
			ID: id, Name: name, Slug: slug, SKU: sku, Brand: brand, CategoryID: category,
			Description: description, Price: price, SalePrice: sale, Stock: stock,
			IsActive: true, IsFeatured: featured, CreatedAt: now, UpdatedAt: now,
		}
	}

	tshirt := product("prod-tshirt", "Classic White T-Shirt", "classic-white-tshirt", "TS-001", "FashionHub", "fashion",
		"100% cotton comfortable everyday wear t-shirt", 59900, domain.Money(39900).Ptr(), 0, false)
	tshirt.HasVariants = true

	size := func(id, sku, name, size string, stock int) domain.Variant {
		return domain.Variant{ID: id, ProductID: tshirt.ID, SKU: sku, Name: name, Size: size, Color: "White", Stock: stock, IsActive: true}
	}
	xl := size("var-tshirt-xl", "TS-001-XL", "Extra Large", "XL", 15)
	xl.Price, xl.SalePrice = domain.Money(64900).Ptr(), domain.Money(44900).Ptr()

	return []seedProduct{
		{product: product("prod-headphones", "Wireless Bluetooth Headphones", "wireless-bluetooth-headphones", "WH-001", "SoundMax", "electronics",
			"Premium noise-cancelling wireless headphones with 30-hour battery life", 299900, domain.Money(249900).Ptr(), 50, true)},
		{product: product("prod-watch", "Smart Watch Pro", "smart-watch-pro", "SW-001", "TechFit", "electronics",
			"Advanced fitness tracker with heart rate monitor and GPS", 599900, domain.Money(499900).Ptr(), 30, true)},
		{product: tshirt, variants: []domain.Variant{
			size("var-tshirt-s", "TS-001-S", "Small", "S", 30),
			size("var-tshirt-m", "TS-001-M", "Medium", "M", 40),
			size("var-tshirt-l", "TS-001-L", "Large", "L", 30),
			xl,
		}},
		{product: product("prod-lamp", "Modern Table Lamp", "modern-table-lamp", "TL-001", "HomeGlow", "home-living",
			"Elegant LED table lamp with adjustable brightness", 129900, domain.Money(99900).Ptr(), 45, true)},
		{product: product("prod-backpack", "Laptop Backpack", "laptop-backpack", "BP-001", "TravelPro", "electronics",
			"Durable water-resistant backpack with laptop compartment", 189900, nil, 60, false)},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.StorageDriver != config.StorageMySQL {
		logger.Fatal("seeding needs STORAGE_DRIVER=mysql", zap.String("driver", cfg.StorageDriver))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	defer db.Close()

	store := storage.NewMySQLAdapter(db)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	now := time.Now()
	if err := seedCatalog(ctx, store, categories(now), catalog(now)); err != nil {
		logger.Fatal("failed to seed catalog", zap.Error(err))
	}
	logger.Info("catalog seeded")

	users := service.NewUserService(store, auth.NewBcryptHasher(0), auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), logger)
	if err := seedDemoUser(ctx, users); err != nil {
		logger.Fatal("failed to seed demo user", zap.Error(err))
	}
	logger.Info("demo user ready", zap.String("email", demoEmail), zap.String("password", demoPassword))
}

func seedCatalog(ctx context.Context, store port.Store, categories []domain.Category, products []seedProduct) error {
	return store.WithinTx(ctx, func(ctx context.Context, repo port.DatabaseRepository) error {
		for _, c := range categories {
			if err := repo.UpsertCategory(ctx, c); err != nil {
				return err
			}
		}
		for _, p := range products {
			if err := repo.UpsertProduct(ctx, p.product); err != nil {
				return err
			}
			for _, v := range p.variants {
				if err := repo.UpsertVariant(ctx, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func seedDemoUser(ctx context.Context, users *service.UserService) error {
	payload, err := users.Register(ctx, service.RegisterInput{
		Email:     demoEmail,
		Password:  demoPassword,
		FirstName: "Demo",
		LastName:  "User",
		Phone:     "1234567890",
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	principal := domain.Principal{UserID: payload.User.ID, Email: payload.User.Email, Role: payload.User.Role}
	_, err = users.AddAddress(ctx, principal, service.AddressInput{
		FullName:   "Demo User",
		Line1:      "221B MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "IN",
		Phone:      "1234567890",
	})
	return err
}
