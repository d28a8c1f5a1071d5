package catalog

import (
	"strings"
)

const (
	// FallbackRatePerSqFt applies when neither the product nor the table defines a rate.
	FallbackRatePerSqFt = 50.0
	// FallbackTaxRate is the flat sales tax applied to the grand subtotal.
	FallbackTaxRate = 0.08
)

// Product describes a configurable product line and its area based rate.
type Product struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	RatePerSqFt float64 `yaml:"rate_per_sqft" json:"ratePerSqFt"`
}

// Tint is a glazing tint with its per-panel surcharge.
type Tint struct {
	Name      string  `yaml:"name" json:"name"`
	Surcharge float64 `yaml:"surcharge" json:"surcharge"`
}

// DeliveryOption is a delivery tier. Panels above PanelAllowance are charged
// PerExtraPanel each; a zero PerExtraPanel means no panel surcharge.
type DeliveryOption struct {
	Name           string  `yaml:"name" json:"name"`
	BasePrice      float64 `yaml:"base_price" json:"basePrice"`
	PanelAllowance int     `yaml:"panel_allowance" json:"panelAllowance"`
	PerExtraPanel  float64 `yaml:"per_extra_panel" json:"perExtraPanel"`
}

// InstallOption is an installation choice charged per square foot of opening.
type InstallOption struct {
	Name        string  `yaml:"name" json:"name"`
	RatePerSqFt float64 `yaml:"rate_per_sqft" json:"ratePerSqFt"`
}

// Definition is the serialisable form of the rate tables.
type Definition struct {
	Version     int              `yaml:"version" json:"version"`
	DefaultRate float64          `yaml:"default_rate_per_sqft" json:"defaultRatePerSqFt"`
	TaxRate     float64          `yaml:"tax_rate" json:"taxRate"`
	Products    []Product        `yaml:"products" json:"products"`
	Tints       []Tint           `yaml:"tints" json:"tints"`
	Deliveries  []DeliveryOption `yaml:"deliveries" json:"deliveries"`
	Installs    []InstallOption  `yaml:"installs" json:"installs"`
}

// Tables is the read-only lookup used by pricing. Safe for concurrent use.
type Tables struct {
	def        Definition
	products   map[string]Product
	tints      map[string]float64
	deliveries map[string]DeliveryOption
	installs   map[string]float64
}

// New indexes the definition. Blank names are skipped and later rows win.
func New(def Definition) *Tables {
	if def.DefaultRate <= 0 {
		def.DefaultRate = FallbackRatePerSqFt
	}
	if def.TaxRate < 0 {
		def.TaxRate = 0
	}
	t := &Tables{
		def:        def,
		products:   make(map[string]Product, len(def.Products)),
		tints:      make(map[string]float64, len(def.Tints)),
		deliveries: make(map[string]DeliveryOption, len(def.Deliveries)),
		installs:   make(map[string]float64, len(def.Installs)),
	}
	for _, p := range def.Products {
		if id := key(p.ID); id != "" {
			t.products[id] = p
		}
	}
	for _, tint := range def.Tints {
		if name := key(tint.Name); name != "" {
			t.tints[name] = tint.Surcharge
		}
	}
	for _, d := range def.Deliveries {
		if name := key(d.Name); name != "" {
			t.deliveries[name] = d
		}
	}
	for _, in := range def.Installs {
		if name := key(in.Name); name != "" {
			t.installs[name] = in.RatePerSqFt
		}
	}
	return t
}

// Definition returns a copy of the source definition.
func (t *Tables) Definition() Definition {
	if t == nil {
		return Definition{}
	}
	def := t.def
	def.Products = append([]Product(nil), t.def.Products...)
	def.Tints = append([]Tint(nil), t.def.Tints...)
	def.Deliveries = append([]DeliveryOption(nil), t.def.Deliveries...)
	def.Installs = append([]InstallOption(nil), t.def.Installs...)
	return def
}

// RatePerSqFt returns the area rate for a product type, falling back to the
// table default for unknown or unpriced types.
func (t *Tables) RatePerSqFt(productType string) float64 {
	if t == nil {
		return FallbackRatePerSqFt
	}
	if p, ok := t.products[key(productType)]; ok && p.RatePerSqFt > 0 {
		return p.RatePerSqFt
	}
	return t.def.DefaultRate
}

// HasProduct reports whether id names a catalog product.
func (t *Tables) HasProduct(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.products[key(id)]
	return ok
}

// TintSurcharge returns the per-panel surcharge for a tint; 0 when unset or unknown.
func (t *Tables) TintSurcharge(name string) float64 {
	if t == nil {
		return 0
	}
	return t.tints[key(name)]
}

// Delivery looks up a delivery option by name.
func (t *Tables) Delivery(name string) (DeliveryOption, bool) {
	if t == nil {
		return DeliveryOption{}, false
	}
	d, ok := t.deliveries[key(name)]
	return d, ok
}

// InstallRatePerSqFt returns the installation rate for an option; 0 when unknown.
func (t *Tables) InstallRatePerSqFt(name string) float64 {
	if t == nil {
		return 0
	}
	return t.installs[key(name)]
}

// TaxRate returns the flat tax rate.
func (t *Tables) TaxRate() float64 {
	if t == nil {
		return FallbackTaxRate
	}
	return t.def.TaxRate
}

func key(s string) string {
	return strings.TrimSpace(s)
}
