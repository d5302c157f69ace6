// Command seed provisions a demo bakery through the service layer so every
// row passes the same validation as the API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bakeops/bakeops/internal/app"
	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/masterdata/suppliers"
	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/production"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
	"github.com/bakeops/bakeops/internal/tenants"
	"github.com/bakeops/bakeops/internal/users"
	"github.com/bakeops/bakeops/migrations"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	ctx := context.Background()

	if err := run(ctx, cfg, logger); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			logger.Info("demo tenant already seeded")
			return
		}
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	if _, err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
		return err
	}

	audit := shared.NewAuditLogger(pool)
	tenantService := tenants.NewService(tenants.NewRepository(pool), nil, audit, nil, nil, logger)
	locationService := locations.NewService(locations.NewRepository(pool), audit, nil, logger)
	supplierService := suppliers.NewService(suppliers.NewRepository(pool), audit, nil, logger)
	productService := products.NewService(products.NewRepository(pool), audit, nil, logger)
	userService := users.NewService(users.NewRepository(pool), audit, nil, nil, logger)
	productionService := production.NewService(production.NewRepository(pool), locationService, productService, audit, nil, logger)

	fmt.Println("→ Seeding tenant...")
	signup, err := tenantService.Signup(ctx, tenants.SignupRequest{
		TenantName:    "Crumb & Co",
		Slug:          "crumb-and-co",
		Currency:      "NZD",
		Timezone:      "Pacific/Auckland",
		OwnerName:     "Demo Owner",
		OwnerEmail:    "owner@crumb.test",
		OwnerPassword: "bakeops-demo",
	})
	if err != nil {
		return err
	}
	ctx = shared.ContextWithPrincipal(ctx, shared.Principal{UserID: signup.Owner.ID, TenantID: signup.Tenant.ID})
	ctx = rbac.ContextWithRole(ctx, rbac.RoleOwner)

	fmt.Println("→ Seeding locations...")
	loc, err := locationService.Create(ctx, locations.CreateLocationRequest{
		Code:         "PON",
		Name:         "Ponsonby",
		AddressLine1: "12 Ponsonby Road",
		City:         "Auckland",
		PostalCode:   "1011",
		Country:      "NZ",
	})
	if err != nil {
		return err
	}

	fmt.Println("→ Seeding suppliers...")
	if _, err := supplierService.Create(ctx, suppliers.CreateSupplierRequest{
		Name:              "Northern Mills",
		ContactName:       "Sam Miller",
		Email:             "orders@northernmills.test",
		DeliveryDays:      []string{"fri", "mon", "wed"},
		MinimumOrderCents: 15000,
		DeliveryFeeCents:  2500,
		PaymentTermsDays:  30,
	}); err != nil {
		return err
	}

	fmt.Println("→ Seeding products...")
	catalog := []products.CreateProductRequest{
		{SKU: "SD-LOAF", Name: "Sourdough", Category: "bread", PriceCents: 950, Unit: "loaf", IsPublic: true},
		{SKU: "CROI", Name: "Butter croissant", Category: "pastry", PriceCents: 550, Unit: "piece", IsPublic: true},
		{SKU: "BAG-DZ", Name: "Bagels", Category: "bread", PriceCents: 1800, Unit: "dozen", IsPublic: true},
	}
	var items []production.ItemInput
	for i, req := range catalog {
		p, err := productService.Create(ctx, req)
		if err != nil {
			return err
		}
		items = append(items, production.ItemInput{ProductID: p.ID, Quantity: 40 - i*10, StartTime: fmt.Sprintf("0%d:30", 4+i)})
	}

	fmt.Println("→ Seeding team...")
	locID := loc.ID
	if _, err := userService.Create(ctx, users.CreateUserRequest{
		Email:      "baker@crumb.test",
		Name:       "Demo Baker",
		Password:   "bakeops-demo",
		Role:       string(rbac.RoleBaker),
		LocationID: &locID,
	}); err != nil {
		return err
	}

	fmt.Println("→ Seeding production schedule...")
	tomorrow := time.Now().In(signup.Tenant.Location()).AddDate(0, 0, 1).Format(production.DateLayout)
	if _, err := productionService.Create(ctx, production.CreateScheduleRequest{
		LocationID:     loc.ID,
		ProductionDate: tomorrow,
		Items:          items,
	}); err != nil {
		return err
	}

	fmt.Println("✓ Seed complete: sign in as owner@crumb.test / bakeops-demo")
	return nil
}
