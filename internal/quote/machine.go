package quote

import (
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

// Machine applies actions to quotes. It holds no quote state; Apply is a pure
// transition given the injected tables and id generator.
type Machine struct {
	Tables *catalog.Tables
	NewID  func() string
}

// NewMachine constructs a Machine backed by the provided tables.
func NewMachine(tables *catalog.Tables) *Machine {
	return &Machine{Tables: tables}
}

func (m *Machine) newID() string {
	if m != nil && m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

func (m *Machine) tables() *catalog.Tables {
	if m == nil || m.Tables == nil {
		return catalog.Default()
	}
	return m.Tables
}

// Catalog returns the rate tables the machine prices against.
func (m *Machine) Catalog() *catalog.Tables {
	return m.tables()
}

// NewItem returns a default item with a fresh identity.
func (m *Machine) NewItem(systemType string) Item {
	return NewItem(m.newID(), systemType)
}

// Default returns an empty, priced quote with a single default item.
func (m *Machine) Default() Quote {
	return m.Reprice(Quote{Items: []Item{m.NewItem("")}})
}

// ApplyAll folds the actions over q in order.
func (m *Machine) ApplyAll(q Quote, actions ...Action) Quote {
	for _, a := range actions {
		q = m.Apply(q, a)
	}
	return q
}

// Apply returns the quote that results from a. The input is never modified.
// Unrecognised actions return q unchanged.
func (m *Machine) Apply(q Quote, a Action) Quote {
	switch act := a.(type) {
	case SetCustomerDetails:
		q.Customer = act.Patch.applyTo(q.Customer)
		return q

	case SetProductType:
		return m.Reprice(m.updateActive(q, func(it *Item) { it.Product.Type = act.Type }))
	case SetProductSize:
		return m.Reprice(m.updateActive(q, func(it *Item) {
			if act.Width != nil {
				it.Product.Width = sanitizeInches(float64(*act.Width))
			}
			if act.Height != nil {
				it.Product.Height = sanitizeInches(float64(*act.Height))
			}
		}))
	case SetConfiguration:
		return m.Reprice(m.updateActive(q, func(it *Item) { it.Product.Configuration = act.Configuration }))
	case SetVisualConfiguration:
		return m.Reprice(m.updateActive(q, func(it *Item) {
			if act.Configuration != nil {
				it.Product.Configuration = *act.Configuration
			}
			if act.Panels != nil {
				it.Product.Panels = strings.TrimSpace(*act.Panels)
			}
			if act.Track != nil {
				it.Product.Track = *act.Track
			}
		}))
	case SetSystemType:
		return m.Reprice(m.updateActive(q, func(it *Item) { it.Product.SystemType = act.SystemType }))

	case SetExteriorColor:
		return m.Reprice(m.updateActive(q, func(it *Item) {
			it.Colors.Exterior = act.Swatch
			if it.Colors.IsSame {
				it.Colors.Interior = act.Swatch
			}
		}))
	case SetInteriorColor:
		return m.Reprice(m.updateActive(q, func(it *Item) {
			it.Colors.Interior = act.Swatch
			if it.Colors.IsSame && act.Swatch != it.Colors.Exterior {
				it.Colors.IsSame = false
			}
		}))
	case SetColorsSame:
		return m.Reprice(m.updateActive(q, func(it *Item) {
			switch {
			case act.IsSame:
				it.Colors.Interior = it.Colors.Exterior
			case it.Colors.IsSame:
				it.Colors.Interior = Swatch{}
			}
			it.Colors.IsSame = act.IsSame
		}))

	case SetGlazing:
		return m.Reprice(m.updateActive(q, func(it *Item) {
			if act.Panes != nil {
				it.Glazing.Panes = *act.Panes
			}
			if act.Tint != nil {
				it.Glazing.Tint = *act.Tint
			}
		}))
	case SetHardware:
		return m.Reprice(m.updateActive(q, func(it *Item) { it.HardwareFinish = act.Finish }))
	case SetRoomName:
		return m.Reprice(m.updateActive(q, func(it *Item) { it.RoomName = act.RoomName }))

	case SetInstall:
		q.InstallOption = act.Option
		return m.Reprice(q)
	case SetDelivery:
		q.DeliveryOption = act.Option
		return m.Reprice(q)

	case AddItem:
		return m.Reprice(m.addItem(q))
	case DeleteItem:
		return m.deleteItem(q, act.Index)
	case DuplicateItem:
		return m.duplicateItem(q, act.Index)
	case SetItemQuantity:
		if act.Index < 0 || act.Index >= len(q.Items) || act.Quantity < 1 {
			return q
		}
		items := cloneItems(q.Items)
		items[act.Index].Quantity = act.Quantity
		q.Items = items
		return m.Reprice(q)
	case SetActiveItem:
		if act.Index < 0 || act.Index >= len(q.Items) {
			return q
		}
		q.ActiveItemIndex = act.Index
		return q

	case CalculatePrices:
		return m.Reprice(q)
	case ResetQuote:
		fresh := m.Default()
		fresh.Customer = q.Customer
		return fresh
	case HydrateState:
		return ensureInvariants(act.Quote, m.NewItem)
	case SetQuoteNumber:
		q.QuoteNumber = act.QuoteNumber
		return q

	default:
		return q
	}
}

func (m *Machine) updateActive(q Quote, fn func(*Item)) Quote {
	q = ensureInvariants(q, m.NewItem)
	items := cloneItems(q.Items)
	fn(&items[q.ActiveItemIndex])
	q.Items = items
	return q
}

func (m *Machine) addItem(q Quote) Quote {
	systemType := ""
	if active, ok := q.ActiveItem(); ok {
		systemType = active.Product.SystemType
	}
	items := make([]Item, len(q.Items), len(q.Items)+1)
	copy(items, q.Items)
	q.Items = append(items, m.NewItem(systemType))
	q.ActiveItemIndex = len(q.Items) - 1
	return q
}

func (m *Machine) deleteItem(q Quote, index int) Quote {
	if len(q.Items) <= 1 || index < 0 || index >= len(q.Items) {
		return q
	}
	items := make([]Item, 0, len(q.Items)-1)
	items = append(items, q.Items[:index]...)
	items = append(items, q.Items[index+1:]...)
	q.Items = items
	if index <= q.ActiveItemIndex {
		q.ActiveItemIndex--
	}
	if q.ActiveItemIndex < 0 {
		q.ActiveItemIndex = 0
	}
	if q.ActiveItemIndex >= len(q.Items) {
		q.ActiveItemIndex = len(q.Items) - 1
	}
	return m.Reprice(q)
}

func (m *Machine) duplicateItem(q Quote, index int) Quote {
	if index < 0 || index >= len(q.Items) {
		return q
	}
	dup := q.Items[index]
	dup.ID = m.newID()
	dup.RoomName = strings.TrimSpace(dup.RoomName + CopySuffix)
	if dup.PriceBreakdown != nil {
		b := *dup.PriceBreakdown
		dup.PriceBreakdown = &b
	}
	items := make([]Item, len(q.Items), len(q.Items)+1)
	copy(items, q.Items)
	q.Items = append(items, dup)
	q.ActiveItemIndex = len(q.Items) - 1
	return m.Reprice(q)
}

// cloneItems copies the slice so writes never reach the caller's backing
// array. Items are values; breakdown pointers are immutable and may be shared.
func cloneItems(items []Item) []Item {
	return append([]Item(nil), items...)
}
