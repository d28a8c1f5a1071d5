package quote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// DefaultSystemType is used for new items when nothing can be inherited.
	DefaultSystemType = "Sliding"
	// PocketDoorSystem is the system type that carries the pocket door surcharge.
	PocketDoorSystem = "Pocket Door"
	// DefaultPanes is the glazing default for new items.
	DefaultPanes = "Dual Pane"
	// CopySuffix marks a duplicated item's room label.
	CopySuffix = " (Copy)"
)

// MaxInches is the largest accepted dimension; larger values decode as unset.
const MaxInches = 1e6

// Inches is a dimension in inches. It decodes from numbers or numeric strings;
// anything else, including values above MaxInches, decodes as zero (unset).
type Inches float64

// UnmarshalJSON implements json.Unmarshaler.
func (in *Inches) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*in = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*in = sanitizeInches(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*in = 0
			return nil
		}
		*in = sanitizeInches(n)
		return nil
	}
	*in = 0
	return nil
}

func sanitizeInches(n float64) Inches {
	if !(n > 0) || n > MaxInches {
		return 0
	}
	return Inches(n)
}

// Swatch is a named, coded color. The zero value is the empty swatch.
type Swatch struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// IsZero reports whether the swatch is unset.
func (s Swatch) IsZero() bool {
	return s == Swatch{}
}

// Colors holds the exterior/interior finish. When IsSame is true Interior equals Exterior.
type Colors struct {
	Exterior Swatch `json:"exterior"`
	Interior Swatch `json:"interior"`
	IsSame   bool   `json:"isSame"`
}

// Product is the configurable product of an item.
type Product struct {
	Type          string `json:"type"`
	Width         Inches `json:"width"`
	Height        Inches `json:"height"`
	Configuration string `json:"configuration"`
	SystemType    string `json:"systemType"`
	Panels        string `json:"panels"`
	Track         string `json:"track"`
}

// Glazing holds the pane count and tint.
type Glazing struct {
	Panes string `json:"panes"`
	Tint  string `json:"tint"`
}

// PriceBreakdown is derived per item on every repricing pass. Values are
// never mutated after creation; repricing replaces the pointer.
type PriceBreakdown struct {
	BaseCost         float64 `json:"baseCost"`
	SizeAndPanelCost float64 `json:"sizeAndPanelCost"`
	PocketDoorCost   float64 `json:"pocketDoorCost"`
	GlazingCost      float64 `json:"glazingCost"`
	TotalUpgrades    float64 `json:"totalUpgrades"`
	UnitPrice        float64 `json:"unitPrice"`
	Quantity         int     `json:"quantity"`
	ItemSubtotal     float64 `json:"itemSubtotal"`
	InstallationCost float64 `json:"installationCost"`
	ItemTotal        float64 `json:"itemTotal"`
}

// Item is one configurable product line within a quote.
type Item struct {
	ID             string          `json:"id"`
	Quantity       int             `json:"quantity"`
	RoomName       string          `json:"roomName"`
	Product        Product         `json:"product"`
	Colors         Colors          `json:"colors"`
	Glazing        Glazing         `json:"glazing"`
	HardwareFinish string          `json:"hardwareFinish"`
	PriceBreakdown *PriceBreakdown `json:"priceBreakdown,omitempty"`
}

// Customer holds contact and profile fields. Opaque to pricing.
type Customer struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ZipCode      string `json:"zipCode"`
	CustomerType string `json:"customerType"`
	Timeline     string `json:"timeline"`
	HeardAboutUs string `json:"heardAboutUs"`
	Notes        string `json:"notes"`
}

// HasContact reports whether any contact field has been captured.
func (c Customer) HasContact() bool {
	for _, v := range []string{c.FirstName, c.LastName, c.Email, c.Phone} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Totals are derived aggregates. Never set directly by an action.
type Totals struct {
	Subtotal         float64   `json:"subtotal"`
	InstallationCost float64   `json:"installationCost"`
	DeliveryCost     float64   `json:"deliveryCost"`
	Tax              float64   `json:"tax"`
	GrandTotal       float64   `json:"grandTotal"`
	ItemTotals       []float64 `json:"itemTotals"`
}

// Quote is the root aggregate for one customer's order in progress.
type Quote struct {
	Customer        Customer `json:"customer"`
	Items           []Item   `json:"items"`
	ActiveItemIndex int      `json:"activeItemIndex"`
	InstallOption   string   `json:"installOption"`
	DeliveryOption  string   `json:"deliveryOption"`
	Totals          Totals   `json:"totals"`
	QuoteNumber     string   `json:"quoteNumber"`
}

// ActiveItem returns the item under the cursor. ok is false only for quotes
// that violate the list invariants.
func (q Quote) ActiveItem() (Item, bool) {
	if q.ActiveItemIndex < 0 || q.ActiveItemIndex >= len(q.Items) {
		return Item{}, false
	}
	return q.Items[q.ActiveItemIndex], true
}

// NewItem returns a default item with the given id and system type.
func NewItem(id, systemType string) Item {
	if strings.TrimSpace(systemType) == "" {
		systemType = DefaultSystemType
	}
	return Item{
		ID:       id,
		Quantity: 1,
		Product:  Product{SystemType: systemType},
		Colors:   Colors{IsSame: true},
		Glazing:  Glazing{Panes: DefaultPanes},
	}
}
