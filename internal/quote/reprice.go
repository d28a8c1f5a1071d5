package quote

import (
	"github.com/noah-isme/backend-quote/internal/pricing"
)

// Reprice recomputes every item's breakdown and the quote totals from the
// current configuration. It is a full pass with no cached state, so calling it
// twice yields identical results.
func (m *Machine) Reprice(q Quote) Quote {
	tables := m.tables()

	lines := make([]pricing.Line, len(q.Items))
	for i, it := range q.Items {
		lines[i] = pricing.Line{
			WidthIn:       float64(it.Product.Width),
			HeightIn:      float64(it.Product.Height),
			RatePerSqFt:   tables.RatePerSqFt(it.Product.Type),
			TintSurcharge: tables.TintSurcharge(it.Glazing.Tint),
			Panels:        pricing.PanelCount(it.Product.Panels),
			PocketDoor:    it.Product.SystemType == PocketDoorSystem,
			Quantity:      it.Quantity,
		}
	}

	opts := pricing.Options{
		InstallRatePerSqFt: tables.InstallRatePerSqFt(q.InstallOption),
		TaxRate:            tables.TaxRate(),
	}
	if d, ok := tables.Delivery(q.DeliveryOption); ok {
		opts.Delivery = pricing.DeliveryRule{
			BasePrice:      d.BasePrice,
			PanelAllowance: d.PanelAllowance,
			PerExtraPanel:  d.PerExtraPanel,
		}
	}

	summary := pricing.Compute(lines, opts)

	items := make([]Item, len(q.Items))
	itemTotals := make([]float64, len(q.Items))
	for i, it := range q.Items {
		res := summary.Lines[i]
		if res.Priced {
			b := breakdownFrom(res.Breakdown)
			it.PriceBreakdown = &b
		} else {
			it.PriceBreakdown = nil
		}
		itemTotals[i] = res.Breakdown.ItemTotal
		items[i] = it
	}
	q.Items = items
	q.Totals = Totals{
		Subtotal:         summary.Subtotal,
		InstallationCost: summary.Installation,
		DeliveryCost:     summary.Delivery,
		Tax:              summary.Tax,
		GrandTotal:       summary.Total,
		ItemTotals:       itemTotals,
	}
	return q
}

func breakdownFrom(b pricing.Breakdown) PriceBreakdown {
	return PriceBreakdown{
		BaseCost:         b.BaseCost,
		SizeAndPanelCost: b.SizeAndPanelCost,
		PocketDoorCost:   b.PocketDoorCost,
		GlazingCost:      b.GlazingCost,
		TotalUpgrades:    b.TotalUpgrades,
		UnitPrice:        b.UnitPrice,
		Quantity:         b.Quantity,
		ItemSubtotal:     b.ItemSubtotal,
		InstallationCost: b.InstallationCost,
		ItemTotal:        b.ItemTotal,
	}
}
