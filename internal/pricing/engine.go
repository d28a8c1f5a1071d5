package pricing

import (
	"strings"
	"unicode"

	"github.com/noah-isme/backend-quote/internal/common"
)

// Money represents a monetary value in dollars.
type Money = float64

const (
	// SqInPerSqFt converts square inches to square feet.
	SqInPerSqFt = 144.0
	// PocketDoorSurcharge is the flat per-unit charge for pocket door systems.
	PocketDoorSurcharge Money = 1200
)

// Line describes one configured item used for pricing calculation.
type Line struct {
	WidthIn       float64
	HeightIn      float64
	RatePerSqFt   Money
	TintSurcharge Money
	Panels        int
	PocketDoor    bool
	Quantity      int
}

// Breakdown is the per-line cost decomposition.
type Breakdown struct {
	AreaSqFt         float64
	BaseCost         Money
	SizeAndPanelCost Money
	PocketDoorCost   Money
	GlazingCost      Money
	TotalUpgrades    Money
	UnitPrice        Money
	Quantity         int
	ItemSubtotal     Money
	InstallationCost Money
	ItemTotal        Money
}

// LineResult carries the outcome for one line. Priced is false when the line
// has no usable dimensions, in which case Breakdown is zero.
type LineResult struct {
	Priced    bool
	Breakdown Breakdown
}

// DeliveryRule is a delivery tier: base price plus a per-panel charge over the allowance.
type DeliveryRule struct {
	BasePrice      Money
	PanelAllowance int
	PerExtraPanel  Money
}

// Cost returns the delivery cost for the given panel count.
func (r DeliveryRule) Cost(totalPanels int) Money {
	cost := r.BasePrice
	if r.PerExtraPanel > 0 && totalPanels > r.PanelAllowance {
		cost += Money(totalPanels-r.PanelAllowance) * r.PerExtraPanel
	}
	return cost
}

// Options holds quote-wide pricing parameters.
type Options struct {
	InstallRatePerSqFt Money
	Delivery           DeliveryRule
	TaxRate            float64
}

// Summary aggregates computed pricing components.
type Summary struct {
	Lines        []LineResult
	Subtotal     Money
	Installation Money
	Delivery     Money
	Tax          Money
	Total        Money
	TotalPanels  int
}

// Compute prices every line and the quote-wide totals. It never fails: bad
// numeric input degrades to zero cost or a multiplier of one.
func Compute(lines []Line, opts Options) Summary {
	summary := Summary{Lines: make([]LineResult, len(lines))}
	for i, ln := range lines {
		panels := ln.Panels
		if panels < 1 {
			panels = 1
		}
		qty := ln.Quantity
		if qty < 1 {
			qty = 1
		}
		summary.TotalPanels += panels * qty

		res := priceLine(ln, panels, qty, opts.InstallRatePerSqFt)
		summary.Lines[i] = res
		if !res.Priced {
			continue
		}
		summary.Subtotal += res.Breakdown.ItemSubtotal
		summary.Installation += res.Breakdown.InstallationCost
	}

	summary.Delivery = opts.Delivery.Cost(summary.TotalPanels)
	grand := summary.Subtotal + summary.Installation + summary.Delivery
	summary.Tax = grand * opts.TaxRate
	summary.Total = grand + summary.Tax
	return summary
}

func priceLine(ln Line, panels, qty int, installRate Money) LineResult {
	if !(ln.WidthIn > 0) || !(ln.HeightIn > 0) {
		return LineResult{}
	}
	area := (ln.WidthIn * ln.HeightIn) / SqInPerSqFt
	var b Breakdown
	b.AreaSqFt = area
	// base cost and pane-count surcharge are not priced yet
	b.BaseCost = 0
	b.SizeAndPanelCost = area * ln.RatePerSqFt
	b.GlazingCost = ln.TintSurcharge * Money(panels)
	if ln.PocketDoor {
		b.PocketDoorCost = PocketDoorSurcharge
	}
	b.TotalUpgrades = b.GlazingCost + b.PocketDoorCost
	b.UnitPrice = b.BaseCost + b.SizeAndPanelCost + b.TotalUpgrades
	b.Quantity = qty
	b.ItemSubtotal = b.UnitPrice * Money(qty)
	b.InstallationCost = area * installRate * Money(qty)
	b.ItemTotal = b.ItemSubtotal + b.InstallationCost
	return LineResult{Priced: true, Breakdown: b}
}

// PanelCount parses a string-encoded panel count. Leading digits are used
// ("3 panel" is 3); anything unparsable or below one counts as one panel.
func PanelCount(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && unicode.IsDigit(rune(raw[end])) {
		end++
	}
	n := common.AtoiDefault(raw[:end], 1)
	if n < 1 {
		return 1
	}
	return n
}
