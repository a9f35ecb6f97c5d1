package session

import "slices"

// SaleStep names the next expected input of the sale listing flow.
type SaleStep string

// Sale listing steps in order.
const (
	StepBrand       SaleStep = "brand"
	StepModel       SaleStep = "model"
	StepYear        SaleStep = "year"
	StepMileage     SaleStep = "mileage"
	StepPrice       SaleStep = "price"
	StepDescription SaleStep = "description"
	StepPhone       SaleStep = "phone"
)

// SaleSteps lists the steps in the order they are asked.
var SaleSteps = []SaleStep{
	StepBrand, StepModel, StepYear, StepMileage, StepPrice, StepDescription, StepPhone,
}

// Valid reports whether s belongs to the sale flow.
func (s SaleStep) Valid() bool {
	return s.index() >= 0
}

// Next returns the following step; ok is false after the last one.
func (s SaleStep) Next() (SaleStep, bool) {
	i := s.index()
	if i < 0 || i+1 >= len(SaleSteps) {
		return "", false
	}
	return SaleSteps[i+1], true
}

func (s SaleStep) index() int {
	for i, st := range SaleSteps {
		if st == s {
			return i
		}
	}
	return -1
}

// SaleDraft holds the validated answers collected so far. The phone is not
// part of the draft: it is the terminal answer and goes straight into the
// submitted request.
type SaleDraft struct {
	Brand       string  `json:"brand,omitempty"`
	Model       string  `json:"model,omitempty"`
	Year        int     `json:"year,omitempty"`
	Mileage     int     `json:"mileage,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Collected returns the steps whose answers a draft at step must contain:
// every step strictly before it.
func Collected(step SaleStep) []SaleStep {
	i := step.index()
	if i <= 0 {
		return nil
	}
	return append([]SaleStep(nil), SaleSteps[:i]...)
}

// Filled returns the steps that have a non-zero value in the draft.
func (d SaleDraft) Filled() []SaleStep {
	var out []SaleStep
	if d.Brand != "" {
		out = append(out, StepBrand)
	}
	if d.Model != "" {
		out = append(out, StepModel)
	}
	if d.Year != 0 {
		out = append(out, StepYear)
	}
	if d.Mileage != 0 {
		out = append(out, StepMileage)
	}
	if d.Price != 0 {
		out = append(out, StepPrice)
	}
	if d.Description != "" {
		out = append(out, StepDescription)
	}
	return out
}

// consistent reports whether the draft holds only answers asked before Step.
func (f SaleListing) consistent() bool {
	asked := Collected(f.Step)
	for _, st := range f.Draft.Filled() {
		if !slices.Contains(asked, st) {
			return false
		}
	}
	return true
}
