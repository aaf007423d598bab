// Package garment holds the garment-QA section types: AQL sampling
// parameters authored on a section, and the quantity/defect tallies
// captured per inspection. The two lifecycles are decoupled — section
// settings can change after the fact, inspections keep a frozen copy.
package garment

import (
	"fmt"

	"github.com/loganand612/inspection-server/utils"
)

// AQLSettings carries the sampling-plan parameters and the caller's
// PASS/FAIL verdict. The verdict is carried as data, never recomputed:
// this system is not an AQL sampling-table engine.
type AQLSettings struct {
	AQLLevel        string `json:"aqlLevel"`
	InspectionLevel string `json:"inspectionLevel"`
	SamplingPlan    string `json:"samplingPlan"`
	Severity        string `json:"severity"`
	Status          string `json:"status,omitempty"` // PASS | FAIL
}

// Defect is one defect tally row.
type Defect struct {
	Type     string      `json:"type"`
	Remarks  string      `json:"remarks,omitempty"`
	Critical utils.Count `json:"critical"`
	Major    utils.Count `json:"major"`
	Minor    utils.Count `json:"minor"`
}

// SizeQuantity is the per-color, per-size quantity cell.
type SizeQuantity struct {
	OrderQty   utils.Count `json:"orderQty"`
	OfferedQty utils.Count `json:"offeredQty"`
}

// Data is the per-inspection garment payload, frozen onto the
// inspection at submit time.
type Data struct {
	Quantities      map[string]map[string]SizeQuantity `json:"quantities,omitempty"`
	CartonOffered   utils.Count                        `json:"cartonOffered"`
	CartonInspected utils.Count                        `json:"cartonInspected"`
	CartonToInspect utils.Count                        `json:"cartonToInspect"`
	Defects         []Defect                           `json:"defects,omitempty"`
	AQLSettings     *AQLSettings                       `json:"aqlSettings,omitempty"`
}

// SectionSettings is the authoring-time garment configuration a
// submission is validated against. Empty size/color lists mean the
// section accepts any token.
type SectionSettings struct {
	Sizes  []string
	Colors []string
}

// ValidationError reports the offending field so handlers can return
// field-level detail.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks a submitted garment payload. Counts must be
// non-negative integers — invalid counts are rejected, never clamped.
// Size and color tokens must be ones the section declares, when it
// declares any. cartonInspected > cartonOffered is deliberately NOT
// rejected: partial re-inspections can legitimately exceed the
// offered count.
func Validate(d *Data, settings *SectionSettings) error {
	if d == nil {
		return nil
	}
	if d.CartonOffered < 0 {
		return &ValidationError{Field: "cartonOffered", Reason: "must be a non-negative integer"}
	}
	if d.CartonInspected < 0 {
		return &ValidationError{Field: "cartonInspected", Reason: "must be a non-negative integer"}
	}
	if d.CartonToInspect < 0 {
		return &ValidationError{Field: "cartonToInspect", Reason: "must be a non-negative integer"}
	}

	for i, def := range d.Defects {
		if def.Type == "" {
			return &ValidationError{Field: fmt.Sprintf("defects[%d].type", i), Reason: "is required"}
		}
		if def.Critical < 0 || def.Major < 0 || def.Minor < 0 {
			return &ValidationError{Field: fmt.Sprintf("defects[%d]", i), Reason: "counts must be non-negative integers"}
		}
	}

	for color, sizes := range d.Quantities {
		if settings != nil && !tokenAllowed(color, settings.Colors) {
			return &ValidationError{Field: "quantities", Reason: fmt.Sprintf("unrecognized color %q", color)}
		}
		for size, q := range sizes {
			if settings != nil && !tokenAllowed(size, settings.Sizes) {
				return &ValidationError{Field: "quantities." + color, Reason: fmt.Sprintf("unrecognized size %q", size)}
			}
			if q.OrderQty < 0 || q.OfferedQty < 0 {
				return &ValidationError{
					Field:  fmt.Sprintf("quantities.%s.%s", color, size),
					Reason: "quantities must be non-negative integers",
				}
			}
		}
	}

	if d.AQLSettings != nil {
		switch d.AQLSettings.Status {
		case "", "PASS", "FAIL":
		default:
			return &ValidationError{Field: "aqlSettings.status", Reason: "must be PASS or FAIL"}
		}
	}
	return nil
}

func tokenAllowed(token string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == token {
			return true
		}
	}
	return false
}
