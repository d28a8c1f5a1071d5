package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// fallback tables used when the embedded file cannot be parsed
var fallbackDefinition = Definition{
	Version:     1,
	DefaultRate: FallbackRatePerSqFt,
	TaxRate:     FallbackTaxRate,
	Deliveries: []DeliveryOption{
		{Name: "Regular Delivery", PanelAllowance: 10, PerExtraPanel: 10},
		{Name: "White Glove Delivery", PanelAllowance: 10, PerExtraPanel: 12},
	},
	Installs: []InstallOption{
		{Name: "Professional Installation", RatePerSqFt: 30},
	},
}

// Default returns the tables bundled with the binary.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultCatalogYAML)
		if err != nil {
			t = New(fallbackDefinition)
		}
		defaultTables = t
	})
	return defaultTables
}

// Load reads tables from a YAML file. An empty path yields the bundled tables.
func Load(path string) (*Tables, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML catalog definition and validates its rates.
func Parse(data []byte) (*Tables, error) {
	def := Definition{DefaultRate: FallbackRatePerSqFt, TaxRate: FallbackTaxRate}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if err := validate(def); err != nil {
		return nil, err
	}
	return New(def), nil
}

func validate(def Definition) error {
	var errs []error
	if def.TaxRate < 0 || def.TaxRate >= 1 {
		errs = append(errs, fmt.Errorf("tax_rate %v out of range", def.TaxRate))
	}
	for _, p := range def.Products {
		if strings.TrimSpace(p.ID) == "" {
			errs = append(errs, errors.New("product with empty id"))
		}
		if p.RatePerSqFt < 0 {
			errs = append(errs, fmt.Errorf("product %q has negative rate", p.ID))
		}
	}
	for _, t := range def.Tints {
		if t.Surcharge < 0 {
			errs = append(errs, fmt.Errorf("tint %q has negative surcharge", t.Name))
		}
	}
	for _, d := range def.Deliveries {
		if d.BasePrice < 0 || d.PerExtraPanel < 0 || d.PanelAllowance < 0 {
			errs = append(errs, fmt.Errorf("delivery %q has negative pricing", d.Name))
		}
	}
	for _, in := range def.Installs {
		if in.RatePerSqFt < 0 {
			errs = append(errs, fmt.Errorf("install %q has negative rate", in.Name))
		}
	}
	return errors.Join(errs...)
}
