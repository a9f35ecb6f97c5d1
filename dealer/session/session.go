// Package session models the per-chat conversation state: the chosen locale
// and at most one active flow.
package session

import (
	"encoding/json"
	"fmt"
)

// Session is stored per chat id. The zero value is a fresh chat with no
// locale and no flow.
type Session struct {
	Locale string
	Flow   Flow
}

// LocaleResolved reports whether the chat has picked a language.
func (s Session) LocaleResolved() bool { return s.Locale != "" }

// Active reports whether a flow is in progress.
func (s Session) Active() bool {
	_, idle := s.Flow.(NoFlow)
	return s.Flow != nil && !idle
}

// IsZero reports whether the session carries nothing worth storing.
func (s Session) IsZero() bool { return !s.LocaleResolved() && !s.Active() }

// WithoutFlow returns a copy with the flow cleared and the locale kept.
func (s Session) WithoutFlow() Session {
	return Session{Locale: s.Locale}
}

// Flow is the sum type of conversation flows. The unexported method closes
// the set to this package.
type Flow interface {
	flowKind() string
}

// NoFlow means no multi-step process is active.
type NoFlow struct{}

// SaleListing collects a sell-my-car request step by step.
type SaleListing struct {
	Step  SaleStep
	Draft SaleDraft
}

// OrderContact waits for a phone number for the chosen vehicle.
type OrderContact struct {
	VehicleID int64
}

func (NoFlow) flowKind() string       { return kindNone }
func (SaleListing) flowKind() string  { return kindSale }
func (OrderContact) flowKind() string { return kindOrder }

const (
	kindNone  = "none"
	kindSale  = "sale"
	kindOrder = "order"
)

// Kind returns the flow name used in logs and metrics.
func Kind(f Flow) string {
	if f == nil {
		return kindNone
	}
	return f.flowKind()
}

type sessionJSON struct {
	Locale string          `json:"locale,omitempty"`
	Flow   json.RawMessage `json:"flow,omitempty"`
}

type flowJSON struct {
	Kind      string     `json:"kind"`
	Step      SaleStep   `json:"step,omitempty"`
	Draft     *SaleDraft `json:"draft,omitempty"`
	VehicleID int64      `json:"vehicle_id,omitempty"`
}

// MarshalJSON encodes the flow as a tagged object.
func (s Session) MarshalJSON() ([]byte, error) {
	out := sessionJSON{Locale: s.Locale}
	var fj *flowJSON
	switch f := s.Flow.(type) {
	case SaleListing:
		d := f.Draft
		fj = &flowJSON{Kind: kindSale, Step: f.Step, Draft: &d}
	case OrderContact:
		fj = &flowJSON{Kind: kindOrder, VehicleID: f.VehicleID}
	}
	if fj != nil {
		raw, err := json.Marshal(fj)
		if err != nil {
			return nil, err
		}
		out.Flow = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged flow object, rejecting unknown kinds,
// unknown steps and drafts that run ahead of their step.
func (s *Session) UnmarshalJSON(data []byte) error {
	var in sessionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Session{Locale: in.Locale}
	if len(in.Flow) == 0 || string(in.Flow) == "null" {
		return nil
	}
	var fj flowJSON
	if err := json.Unmarshal(in.Flow, &fj); err != nil {
		return err
	}
	switch fj.Kind {
	case kindNone, "":
	case kindSale:
		if !fj.Step.Valid() {
			return fmt.Errorf("session: unknown sale step %q", fj.Step)
		}
		f := SaleListing{Step: fj.Step}
		if fj.Draft != nil {
			f.Draft = *fj.Draft
		}
		if !f.consistent() {
			return fmt.Errorf("session: draft at step %q holds later answers", fj.Step)
		}
		s.Flow = f
	case kindOrder:
		s.Flow = OrderContact{VehicleID: fj.VehicleID}
	default:
		return fmt.Errorf("session: unknown flow kind %q", fj.Kind)
	}
	return nil
}
