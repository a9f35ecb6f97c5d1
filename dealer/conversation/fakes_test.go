package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m3rciful/dealerbot/core/telegram/state"
	"github.com/m3rciful/dealerbot/dealer/catalog"
	"github.com/m3rciful/dealerbot/dealer/i18n"
	"github.com/m3rciful/dealerbot/dealer/session"
)

const (
	testChat  int64 = 1001
	testAdmin int64 = 9000
)

type fakeCatalog struct {
	mu       sync.Mutex
	vehicles []catalog.Vehicle
	tiers    []catalog.PriceTier
	managers []catalog.Manager
	orders   []catalog.Order
	listings []catalog.SaleListingRequest
	err      error
}

func (f *fakeCatalog) ListActiveVehicles(_ context.Context, flt catalog.VehicleFilter) ([]catalog.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.Vehicle
	for _, v := range f.matching(flt) {
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeCatalog) CountActiveVehicles(_ context.Context, flt catalog.VehicleFilter) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.matching(flt)), nil
}

func (f *fakeCatalog) matching(flt catalog.VehicleFilter) []catalog.Vehicle {
	var tier *catalog.PriceTier
	for i := range f.tiers {
		if f.tiers[i].ID == flt.TierID {
			tier = &f.tiers[i]
		}
	}
	var out []catalog.Vehicle
	for _, v := range f.vehicles {
		if !v.Active {
			continue
		}
		if flt.TierID != 0 && (tier == nil || !tier.Contains(v.PriceUSD)) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (f *fakeCatalog) GetVehicle(_ context.Context, id int64) (catalog.Vehicle, error) {
	if f.err != nil {
		return catalog.Vehicle{}, f.err
	}
	for _, v := range f.vehicles {
		if v.ID == id && v.Active {
			return v, nil
		}
	}
	return catalog.Vehicle{}, catalog.ErrNotFound
}

func (f *fakeCatalog) ListActivePriceTiers(context.Context) ([]catalog.PriceTier, error) {
	return f.tiers, f.err
}

func (f *fakeCatalog) ListActiveManagers(context.Context) ([]catalog.Manager, error) {
	return f.managers, f.err
}

func (f *fakeCatalog) CreateOrder(_ context.Context, o *catalog.Order) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = int64(len(f.orders) + 1)
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeCatalog) CreateSaleListing(_ context.Context, req *catalog.SaleListingRequest) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = int64(len(f.listings) + 1)
	f.listings = append(f.listings, *req)
	return nil
}

// panicCatalog panics on vehicle listing, like a driver bug would.
type panicCatalog struct {
	*fakeCatalog
}

func (panicCatalog) ListActiveVehicles(context.Context, catalog.VehicleFilter) ([]catalog.Vehicle, error) {
	panic("driver bug")
}

type recordingDeliverer struct {
	mu     sync.Mutex
	boxes  []Outbox
	reject error
}

func (r *recordingDeliverer) Deliver(_ context.Context, out Outbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boxes = append(r.boxes, out)
	return r.reject
}

func (r *recordingDeliverer) last() Outbox {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.boxes) == 0 {
		return nil
	}
	return r.boxes[len(r.boxes)-1]
}

type failingStore struct {
	state.Store[session.Session]
	saveErr error
}

func (s failingStore) Save(context.Context, int64, session.Session) error { return s.saveErr }

var errBoom = errors.New("boom")

func newTestEngine(c *fakeCatalog) *Engine {
	return NewEngine(c, i18n.MustDefault(), Config{AdminChatID: testAdmin})
}

func text(s string) Update {
	return Update{ID: 1, ChatID: testChat, From: testUser, Message: &Message{Text: s}}
}

func press(data string) Update {
	return Update{ID: 2, ChatID: testChat, From: testUser, Callback: &Callback{ID: "cb-" + data, Data: data}}
}

var testUser = User{ID: 77, Username: "asel", FirstName: "Asel", LastName: "K"}

func ru() session.Session { return session.Session{Locale: i18n.RU} }

// run feeds updates through Handle, failing the test on error, and returns
// the final session with the last outbox.
func run(t testing.TB, e *Engine, s session.Session, updates ...Update) (session.Session, Outbox) {
	t.Helper()
	var out Outbox
	for _, u := range updates {
		var err error
		s, out, err = e.Handle(context.Background(), s, u)
		if err != nil {
			t.Fatalf("Handle(%+v): %v", u, err)
		}
	}
	return s, out
}

func sampleVehicle(id int64, price float64) catalog.Vehicle {
	return catalog.Vehicle{
		ID:           id,
		Title:        "Toyota Camry 2019",
		PriceUSD:     price,
		Brand:        "Toyota",
		Model:        "Camry",
		Year:         2019,
		MileageKM:    45000,
		FuelType:     "бензин",
		Transmission: "автомат",
		PhotoURL:     "https://example.com/camry.jpg",
		Active:       true,
	}
}

// Messages returns the SendMessage actions addressed to chatID.
func (o Outbox) Messages(chatID int64) []SendMessage {
	var out []SendMessage
	for _, a := range o {
		if m, ok := a.(SendMessage); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Answered reports whether the outbox acknowledges callbackID.
func (o Outbox) Answered(callbackID string) bool {
	for _, a := range o {
		if ac, ok := a.(AnswerCallback); ok && ac.CallbackID == callbackID {
			return true
		}
	}
	return false
}
