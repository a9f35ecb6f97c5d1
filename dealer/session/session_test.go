package session

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSaleStepSequence(t *testing.T) {
	step := StepBrand
	var seen []SaleStep
	for {
		seen = append(seen, step)
		next, ok := step.Next()
		if !ok {
			break
		}
		step = next
	}
	if !reflect.DeepEqual(seen, SaleSteps) {
		t.Fatalf("sequence = %v", seen)
	}
	if SaleStep("color").Valid() {
		t.Fatal("unknown step must be invalid")
	}
}

func TestCollectedIsStrictPrefix(t *testing.T) {
	if got := Collected(StepBrand); len(got) != 0 {
		t.Fatalf("brand collected = %v", got)
	}
	if got := Collected(StepYear); !reflect.DeepEqual(got, []SaleStep{StepBrand, StepModel}) {
		t.Fatalf("year collected = %v", got)
	}
	d := SaleDraft{Brand: "Toyota", Model: "Camry"}
	if !reflect.DeepEqual(d.Filled(), Collected(StepYear)) {
		t.Fatalf("filled = %v", d.Filled())
	}
}

func TestSessionActive(t *testing.T) {
	cases := []struct {
		s    Session
		want bool
	}{
		{Session{}, false},
		{Session{Flow: NoFlow{}}, false},
		{Session{Flow: OrderContact{VehicleID: 1}}, true},
		{Session{Flow: SaleListing{Step: StepBrand}}, true},
	}
	for _, tc := range cases {
		if got := tc.s.Active(); got != tc.want {
			t.Fatalf("Active(%+v) = %v", tc.s, got)
		}
	}
	s := Session{Locale: "ky", Flow: OrderContact{VehicleID: 3}}.WithoutFlow()
	if s.Locale != "ky" || s.Active() {
		t.Fatalf("WithoutFlow = %+v", s)
	}
}

func TestSessionJSON(t *testing.T) {
	cases := []Session{
		{},
		{Locale: "ru"},
		{Locale: "ru", Flow: SaleListing{Step: StepPrice, Draft: SaleDraft{Brand: "Toyota", Model: "Camry", Year: 2019, Mileage: 45000}}},
		{Locale: "ky", Flow: OrderContact{VehicleID: 42}},
	}
	for _, in := range cases {
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal %+v: %v", in, err)
		}
		var out Session
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("round trip %s: got %+v, want %+v", data, out, in)
		}
	}
}

func TestSessionJSONRejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{
		`{"flow":{"kind":"lease"}}`,
		`{"flow":{"kind":"sale","step":"color"}}`,
		`{"flow":{"kind":"sale","step":"model","draft":{"brand":"Kia","year":2020}}}`,
	} {
		var s Session
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestSessionJSONWireShape(t *testing.T) {
	data, _ := json.Marshal(Session{Locale: "ru", Flow: OrderContact{VehicleID: 42}})
	if string(data) != `{"locale":"ru","flow":{"kind":"order","vehicle_id":42}}` {
		t.Fatalf("json = %s", data)
	}
}
