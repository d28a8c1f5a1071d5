package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesLookups(t *testing.T) {
	tables := Default()

	require.Equal(t, 85.0, tables.RatePerSqFt("multi-slide"))
	require.Equal(t, 50.0, tables.RatePerSqFt("unknown-type"))
	require.Equal(t, 50.0, tables.RatePerSqFt(""))
	require.True(t, tables.HasProduct("pivot"))
	require.False(t, tables.HasProduct("garage"))

	require.Equal(t, 150.0, tables.TintSurcharge("Low-E 366"))
	require.Zero(t, tables.TintSurcharge(""))
	require.Zero(t, tables.TintSurcharge("Neon"))

	regular, ok := tables.Delivery("Regular Delivery")
	require.True(t, ok)
	require.Equal(t, 10, regular.PanelAllowance)
	require.Equal(t, 10.0, regular.PerExtraPanel)
	glove, ok := tables.Delivery("White Glove Delivery")
	require.True(t, ok)
	require.Equal(t, 12.0, glove.PerExtraPanel)
	pickup, ok := tables.Delivery("Customer Pickup")
	require.True(t, ok)
	require.Zero(t, pickup.PerExtraPanel)

	require.Equal(t, 30.0, tables.InstallRatePerSqFt("Professional Installation"))
	require.Zero(t, tables.InstallRatePerSqFt("Self Installation"))
	require.Equal(t, 0.08, tables.TaxRate())
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	tables, err := Parse([]byte("products:\n  - id: door\n    rate_per_sqft: 70\n"))
	require.NoError(t, err)
	require.Equal(t, 70.0, tables.RatePerSqFt("door"))
	require.Equal(t, FallbackRatePerSqFt, tables.RatePerSqFt("other"))
	require.Equal(t, FallbackTaxRate, tables.TaxRate())
}

func TestParseRejectsNegativeRates(t *testing.T) {
	_, err := Parse([]byte("tints:\n  - name: Gray\n    surcharge: -5\n"))
	require.Error(t, err)

	_, err = Parse([]byte("tax_rate: 1.5\n"))
	require.Error(t, err)

	_, err = Parse([]byte("products: [this is not valid"))
	require.Error(t, err)
}

func TestNilTablesDegradeToDefaults(t *testing.T) {
	var tables *Tables
	require.Equal(t, FallbackRatePerSqFt, tables.RatePerSqFt("x"))
	require.Zero(t, tables.TintSurcharge("Gray"))
	require.False(t, tables.HasProduct("x"))
	_, ok := tables.Delivery("Regular Delivery")
	require.False(t, ok)
}

func TestLoadEmptyPathUsesBundledTables(t *testing.T) {
	tables, err := Load("")
	require.NoError(t, err)
	require.Same(t, Default(), tables)

	_, err = Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestHandlerProduct(t *testing.T) {
	h := NewHandler(HandlerConfig{Tables: Default()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/pivot", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "pivot")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()
	h.Product(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Pivot Door", body.Data.Name)

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/nope", nil)
	rctx = chi.NewRouteContext()
	rctx.URLParams.Add("id", "nope")
	missing = missing.WithContext(context.WithValue(missing.Context(), chi.RouteCtxKey, rctx))
	rr = httptest.NewRecorder()
	h.Product(rr, missing)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
