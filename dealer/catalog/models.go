// Package catalog stores the dealership inventory and the requests the bot
// records on behalf of customers.
package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist or is inactive.
var ErrNotFound = errors.New("catalog: not found")

// StatusNew is the initial status of orders and sale listing requests.
const StatusNew = "new"

// Vehicle is a car offered for sale.
type Vehicle struct {
	ID             int64   `db:"id"`
	Title          string  `db:"title"`
	Description    string  `db:"description"`
	PriceUSD       float64 `db:"price_usd"`
	Brand          string  `db:"brand"`
	Model          string  `db:"model"`
	Year           int     `db:"year"`
	MileageKM      int     `db:"mileage_km"`
	FuelType       string  `db:"fuel_type"`
	Transmission   string  `db:"transmission"`
	Color          string  `db:"color"`
	EngineCapacity float64 `db:"engine_capacity"`
	PhotoURL       string  `db:"photo_url"`
	Active         bool    `db:"is_active"`
}

// PriceTier is a price bucket used to browse the catalog.
type PriceTier struct {
	ID     int64   `db:"id"`
	Name   string  `db:"name"`
	MinUSD float64 `db:"min_price_usd"`
	MaxUSD float64 `db:"max_price_usd"`
	Active bool    `db:"is_active"`
}

// Contains reports whether price falls inside the tier, both bounds included.
func (t PriceTier) Contains(price float64) bool {
	return price >= t.MinUSD && price <= t.MaxUSD
}

// TierFor returns the first tier containing price.
func TierFor(tiers []PriceTier, price float64) (PriceTier, bool) {
	for _, t := range tiers {
		if t.Contains(price) {
			return t, true
		}
	}
	return PriceTier{}, false
}

// Manager is a sales contact shown to customers.
type Manager struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	TelegramUsername string `db:"telegram_username"`
	Phone            string `db:"phone"`
	Email            string `db:"email"`
	Active           bool   `db:"is_active"`
}

// VehicleFilter narrows vehicle queries. Zero values mean no restriction.
type VehicleFilter struct {
	TierID int64
	Limit  int
}

// Order is a purchase request for a vehicle.
type Order struct {
	ID                int64     `db:"id"`
	VehicleID         int64     `db:"vehicle_id"`
	ChatID            int64     `db:"telegram_chat_id"`
	TelegramUsername  string    `db:"telegram_username"`
	TelegramFirstName string    `db:"telegram_first_name"`
	FullName          string    `db:"full_name"`
	Phone             string    `db:"phone"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
}

// SaleListingRequest is a customer's offer to sell a car to the dealership.
type SaleListingRequest struct {
	ID                int64     `db:"id"`
	ChatID            int64     `db:"telegram_chat_id"`
	TelegramUsername  string    `db:"telegram_username"`
	TelegramFirstName string    `db:"telegram_first_name"`
	Brand             string    `db:"car_brand"`
	Model             string    `db:"car_model"`
	Year              int       `db:"car_year"`
	Mileage           int       `db:"car_mileage"`
	Price             float64   `db:"car_price"`
	Description       string    `db:"car_description"`
	Phone             string    `db:"phone"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
}
