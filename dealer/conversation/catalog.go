package conversation

import (
	"context"

	"github.com/m3rciful/dealerbot/dealer/catalog"
)

// Catalog is the inventory the engine reads and the two request tables it
// writes to. GetVehicle returns catalog.ErrNotFound for unknown or inactive ids.
type Catalog interface {
	ListActiveVehicles(ctx context.Context, f catalog.VehicleFilter) ([]catalog.Vehicle, error)
	CountActiveVehicles(ctx context.Context, f catalog.VehicleFilter) (int, error)
	GetVehicle(ctx context.Context, id int64) (catalog.Vehicle, error)
	ListActivePriceTiers(ctx context.Context) ([]catalog.PriceTier, error)
	ListActiveManagers(ctx context.Context) ([]catalog.Manager, error)
	CreateOrder(ctx context.Context, o *catalog.Order) error
	CreateSaleListing(ctx context.Context, req *catalog.SaleListingRequest) error
}

var _ Catalog = (*catalog.Repository)(nil)
