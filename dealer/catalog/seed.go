package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dealerbot/core/logger"
)

// SeedPriceTiers are the reference price buckets.
var SeedPriceTiers = []PriceTier{
	{Name: "0-3000$", MinUSD: 0, MaxUSD: 3000, Active: true},
	{Name: "3000-6000$", MinUSD: 3000, MaxUSD: 6000, Active: true},
	{Name: "6000-10000$", MinUSD: 6000, MaxUSD: 10000, Active: true},
	{Name: "10000-20000$", MinUSD: 10000, MaxUSD: 20000, Active: true},
	{Name: "20000+$", MinUSD: 20000, MaxUSD: 1000000, Active: true},
}

// SeedBrands lists brand names in insertion order.
var SeedBrands = []string{
	"Toyota", "Honda", "BMW", "Chevrolet", "Mazda", "Ford", "Hyundai", "Kia", "Mercedes", "Audi",
}

// SeedModels maps a brand to its reference models.
var SeedModels = []struct {
	Brand  string
	Models []string
}{
	{"Toyota", []string{"Camry", "Corolla", "RAV4"}},
	{"Honda", []string{"Civic", "Accord", "CR-V"}},
	{"BMW", []string{"X5", "3 Series"}},
	{"Chevrolet", []string{"Malibu", "Camaro"}},
	{"Mazda", []string{"CX-5", "Mazda3"}},
	{"Ford", []string{"Focus", "F-150"}},
}

// SeedManagers are the default sales contacts.
var SeedManagers = []Manager{
	{Name: "Мухаммед", TelegramUsername: "muhamed", Phone: "+996 555 123 456", Email: "info@suvtekin.kg", Active: true},
	{Name: "Алишер", TelegramUsername: "alisher_auto", Phone: "+996 555 789 012", Email: "sales@suvtekin.kg", Active: true},
	{Name: "Айгерим", TelegramUsername: "aigerim_cars", Phone: "+996 555 345 678", Email: "support@suvtekin.kg", Active: true},
}

var (
	seedColors = []string{"Черный", "Белый", "Серый", "Синий"}
	seedPhotos = []string{
		"https://images.unsplash.com/photo-1549317661-bd32c8ce0db2?w=800",
		"https://images.unsplash.com/photo-1553440569-bcc63803a83d?w=800",
	}
)

// SampleVehicles builds demo inventory: two models for each of the first
// five seeded brands with prices spread across the tiers.
func SampleVehicles() []SampleVehicle {
	var out []SampleVehicle
	for i, bm := range SeedModels[:5] {
		for j, model := range bm.Models[:2] {
			year := 2020 - i
			out = append(out, SampleVehicle{
				Brand: bm.Brand,
				Model: model,
				Vehicle: Vehicle{
					Title:          fmt.Sprintf("%s %s %d", bm.Brand, model, year),
					Description:    fmt.Sprintf("Отличное состояние, %s %s, один владелец.", bm.Brand, model),
					PriceUSD:       float64(15000 + i*5000 + j*2000),
					Year:           year,
					MileageKM:      30000 + i*10000 + j*5000,
					FuelType:       pick(j == 0, "Бензин", "Дизель"),
					Transmission:   pick(i%2 == 0, "Автомат", "Механика"),
					Color:          seedColors[(i+j)%len(seedColors)],
					EngineCapacity: 1.8 + float64(i)*0.3,
					PhotoURL:       seedPhotos[(i+j)%len(seedPhotos)],
					Active:         true,
				},
			})
		}
	}
	return out
}

// SampleVehicle is a seed vehicle with its brand and model resolved by name.
type SampleVehicle struct {
	Brand string
	Model string
	Vehicle
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// Seeder fills empty reference tables. Tables that already hold rows are
// left untouched, so running it on every start is safe.
type Seeder struct{}

// Seed runs all seed steps in one transaction.
func (Seeder) Seed(ctx context.Context, db *sqlx.DB) error {
	start := time.Now()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		table string
		run   func(context.Context, *sqlx.Tx) (int, error)
	}{
		{"price_tiers", seedTiers},
		{"brands", seedBrands},
		{"car_models", seedModels},
		{"managers", seedManagers},
		{"vehicles", seedVehicles},
	}
	for _, step := range steps {
		var existing int
		if err := tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM `+step.table); err != nil {
			return fmt.Errorf("seed %s: count: %w", step.table, err)
		}
		if existing > 0 {
			logger.SEED.Debug("seed skipped",
				slog.String("event", "seed.skip"),
				slog.String("table", step.table),
				slog.Int("rows", existing),
			)
			continue
		}
		n, err := step.run(ctx, tx)
		if err != nil {
			return fmt.Errorf("seed %s: %w", step.table, err)
		}
		logger.SEED.Info("seed applied",
			slog.String("event", "seed.apply"),
			slog.String("table", step.table),
			slog.Int("rows", n),
		)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	logger.SEED.Info("seed finished",
		slog.String("event", "seed.summary"),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func seedTiers(ctx context.Context, tx *sqlx.Tx) (int, error) {
	for _, t := range SeedPriceTiers {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO price_tiers (name, min_price_usd, max_price_usd, is_active)
			VALUES (:name, :min_price_usd, :max_price_usd, :is_active)`, t); err != nil {
			return 0, err
		}
	}
	return len(SeedPriceTiers), nil
}

func seedBrands(ctx context.Context, tx *sqlx.Tx) (int, error) {
	for _, name := range SeedBrands {
		if _, err := tx.ExecContext(ctx, `INSERT INTO brands (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return 0, err
		}
	}
	return len(SeedBrands), nil
}

func seedModels(ctx context.Context, tx *sqlx.Tx) (int, error) {
	n := 0
	for _, bm := range SeedModels {
		for _, model := range bm.Models {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO car_models (brand_id, name)
				SELECT id, $2 FROM brands WHERE name = $1
				ON CONFLICT (brand_id, name) DO NOTHING`, bm.Brand, model)
			if err != nil {
				return 0, err
			}
			if rows, _ := res.RowsAffected(); rows > 0 {
				n++
			}
		}
	}
	return n, nil
}

func seedManagers(ctx context.Context, tx *sqlx.Tx) (int, error) {
	for _, m := range SeedManagers {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO managers (name, telegram_username, phone, email, is_active)
			VALUES (:name, :telegram_username, :phone, :email, :is_active)`, m); err != nil {
			return 0, err
		}
	}
	return len(SeedManagers), nil
}

func seedVehicles(ctx context.Context, tx *sqlx.Tx) (int, error) {
	var tiers []PriceTier
	if err := tx.SelectContext(ctx, &tiers, `
		SELECT id, name, min_price_usd, max_price_usd, is_active
		FROM price_tiers WHERE is_active ORDER BY min_price_usd, id`); err != nil {
		return 0, err
	}
	samples := SampleVehicles()
	for _, s := range samples {
		var tierID *int64
		if t, ok := TierFor(tiers, s.PriceUSD); ok {
			tierID = &t.ID
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vehicles (title, description, price_usd, brand_id, model_id, price_tier_id,
				year, mileage_km, fuel_type, transmission, color, engine_capacity, photo_url, is_active)
			SELECT $1, $2, $3, b.id, m.id, $4, $5, $6, $7, $8, $9, $10, $11, $12
			FROM brands b JOIN car_models m ON m.brand_id = b.id
			WHERE b.name = $13 AND m.name = $14`,
			s.Title, s.Description, s.PriceUSD, tierID,
			s.Year, s.MileageKM, s.FuelType, s.Transmission, s.Color, s.EngineCapacity, s.PhotoURL, s.Active,
			s.Brand, s.Model,
		); err != nil {
			return 0, err
		}
	}
	return len(samples), nil
}
