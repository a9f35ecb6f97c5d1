package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dealerbot/core/logger"
)

// Repository is the Postgres backed catalog.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open connection pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const vehicleColumns = `
	v.id, v.title, v.description, v.price_usd,
	COALESCE(b.name, '') AS brand, COALESCE(m.name, '') AS model,
	v.year, v.mileage_km, v.fuel_type, v.transmission, v.color,
	v.engine_capacity, v.photo_url, v.is_active`

const vehicleFrom = `
	FROM vehicles v
	LEFT JOIN brands b ON b.id = v.brand_id
	LEFT JOIN car_models m ON m.id = v.model_id`

// tierMatch keeps vehicles priced inside tier $1; a zero id disables the filter.
const tierMatch = `
	($1::bigint = 0 OR EXISTS (
		SELECT 1 FROM price_tiers t
		WHERE t.id = $1 AND v.price_usd BETWEEN t.min_price_usd AND t.max_price_usd
	))`

// ListActiveVehicles returns active vehicles in id order.
func (r *Repository) ListActiveVehicles(ctx context.Context, f VehicleFilter) ([]Vehicle, error) {
	start := time.Now()
	q := `SELECT` + vehicleColumns + vehicleFrom + `
		WHERE v.is_active AND` + tierMatch + `
		ORDER BY v.id
		LIMIT NULLIF($2::int, 0)`
	var out []Vehicle
	if err := r.db.SelectContext(ctx, &out, q, f.TierID, f.Limit); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	logQuery(ctx, "vehicles.list", start, slog.Int64("tier_id", f.TierID), slog.Int("rows", len(out)))
	return out, nil
}

// CountActiveVehicles counts active vehicles matching f. Limit is ignored.
func (r *Repository) CountActiveVehicles(ctx context.Context, f VehicleFilter) (int, error) {
	start := time.Now()
	q := `SELECT COUNT(*) FROM vehicles v WHERE v.is_active AND` + tierMatch
	var n int
	if err := r.db.GetContext(ctx, &n, q, f.TierID); err != nil {
		return 0, fmt.Errorf("count vehicles: %w", err)
	}
	logQuery(ctx, "vehicles.count", start, slog.Int64("tier_id", f.TierID), slog.Int("rows", n))
	return n, nil
}

// GetVehicle loads an active vehicle by id.
func (r *Repository) GetVehicle(ctx context.Context, id int64) (Vehicle, error) {
	start := time.Now()
	q := `SELECT` + vehicleColumns + vehicleFrom + ` WHERE v.id = $1 AND v.is_active`
	var v Vehicle
	err := r.db.GetContext(ctx, &v, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	logQuery(ctx, "vehicles.get", start, slog.Int64("car_id", id))
	return v, nil
}

// ListActivePriceTiers returns active tiers ordered by lower bound.
func (r *Repository) ListActivePriceTiers(ctx context.Context) ([]PriceTier, error) {
	start := time.Now()
	var out []PriceTier
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, min_price_usd, max_price_usd, is_active
		FROM price_tiers WHERE is_active ORDER BY min_price_usd, id`)
	if err != nil {
		return nil, fmt.Errorf("list price tiers: %w", err)
	}
	logQuery(ctx, "tiers.list", start, slog.Int("rows", len(out)))
	return out, nil
}

// ListActiveManagers returns active managers in id order.
func (r *Repository) ListActiveManagers(ctx context.Context) ([]Manager, error) {
	start := time.Now()
	var out []Manager
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, telegram_username, phone, email, is_active
		FROM managers WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	logQuery(ctx, "managers.list", start, slog.Int("rows", len(out)))
	return out, nil
}

// CreateOrder inserts o and fills its id and creation time.
func (r *Repository) CreateOrder(ctx context.Context, o *Order) error {
	if o.Status == "" {
		o.Status = StatusNew
	}
	start := time.Now()
	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO orders (vehicle_id, telegram_chat_id, telegram_username, telegram_first_name, full_name, phone, status)
		VALUES (:vehicle_id, :telegram_chat_id, :telegram_username, :telegram_first_name, :full_name, :phone, :status)
		RETURNING id, created_at`, o)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&o.ID, &o.CreatedAt); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	logQuery(ctx, "orders.insert", start, slog.Int64("order_id", o.ID))
	return nil
}

// CreateSaleListing inserts req and fills its id and creation time.
func (r *Repository) CreateSaleListing(ctx context.Context, req *SaleListingRequest) error {
	if req.Status == "" {
		req.Status = StatusNew
	}
	start := time.Now()
	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO sale_listing_requests (telegram_chat_id, telegram_username, telegram_first_name,
			car_brand, car_model, car_year, car_mileage, car_price, car_description, phone, status)
		VALUES (:telegram_chat_id, :telegram_username, :telegram_first_name,
			:car_brand, :car_model, :car_year, :car_mileage, :car_price, :car_description, :phone, :status)
		RETURNING id, created_at`, req)
	if err != nil {
		return fmt.Errorf("create sale listing: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&req.ID, &req.CreatedAt); err != nil {
			return fmt.Errorf("create sale listing: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("create sale listing: %w", err)
	}
	logQuery(ctx, "sale_listings.insert", start, slog.Int64("listing_id", req.ID))
	return nil
}

func logQuery(ctx context.Context, event string, start time.Time, attrs ...slog.Attr) {
	if !logger.ShouldSampleDebug() {
		return
	}
	attrs = append(attrs, slog.String("status", "ok"), slog.Duration("duration", logger.Took(start)))
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelDebug, event, attrs...)
}
