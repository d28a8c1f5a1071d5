package quote

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

const regularDeliveryBase = 250.0

func testTables() *catalog.Tables {
	return catalog.New(catalog.Definition{
		DefaultRate: 40,
		TaxRate:     0.08,
		Products: []catalog.Product{
			{ID: "door", Name: "Door", RatePerSqFt: 50},
			{ID: "window", Name: "Window", RatePerSqFt: 100},
		},
		Tints: []catalog.Tint{{Name: "Gray", Surcharge: 150}},
		Deliveries: []catalog.DeliveryOption{
			{Name: "Regular Delivery", BasePrice: regularDeliveryBase, PanelAllowance: 10, PerExtraPanel: 10},
			{Name: "White Glove Delivery", BasePrice: 500, PanelAllowance: 10, PerExtraPanel: 12},
			{Name: "Flat Freight", BasePrice: 50},
		},
		Installs: []catalog.InstallOption{
			{Name: "Professional Installation", RatePerSqFt: 30},
			{Name: "Light Install", RatePerSqFt: 10},
		},
	})
}

func testMachine() *Machine {
	n := 0
	return &Machine{
		Tables: testTables(),
		NewID: func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		},
	}
}

func inches(v float64) *Inches {
	in := Inches(v)
	return &in
}

func strptr(s string) *string { return &s }

func TestDefaultQuote(t *testing.T) {
	m := testMachine()
	q := m.Default()

	require.NoError(t, Validate(q))
	require.Len(t, q.Items, 1)
	require.Equal(t, 0, q.ActiveItemIndex)
	require.Equal(t, "item-1", q.Items[0].ID)
	require.Equal(t, DefaultSystemType, q.Items[0].Product.SystemType)
	require.Nil(t, q.Items[0].PriceBreakdown)
	require.Equal(t, []float64{0}, q.Totals.ItemTotals)
	require.Zero(t, q.Totals.GrandTotal)
}

func TestPricingScenarioA(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetProductType{Type: "door"},
		SetProductSize{Width: inches(120), Height: inches(96)},
		SetInstall{Option: "Professional Installation"},
	)

	b := q.Items[0].PriceBreakdown
	require.NotNil(t, b)
	require.Equal(t, 4000.0, b.SizeAndPanelCost)
	require.Zero(t, b.BaseCost)
	require.Zero(t, b.GlazingCost)
	require.Zero(t, b.PocketDoorCost)
	require.Equal(t, 4000.0, b.UnitPrice)
	require.Equal(t, 4000.0, b.ItemSubtotal)
	require.Equal(t, 2400.0, b.InstallationCost)
	require.Equal(t, 6400.0, b.ItemTotal)
	require.Equal(t, 4000.0, q.Totals.Subtotal)
	require.Equal(t, 2400.0, q.Totals.InstallationCost)
	require.Equal(t, []float64{6400}, q.Totals.ItemTotals)
}

func TestPricingScenarioBDeliveryTier(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetVisualConfiguration{Panels: strptr("4")},
		SetItemQuantity{Index: 0, Quantity: 2},
		AddItem{},
		SetVisualConfiguration{Panels: strptr("2")},
		SetItemQuantity{Index: 1, Quantity: 2},
		SetDelivery{Option: "Regular Delivery"},
	)
	require.Equal(t, regularDeliveryBase+20, q.Totals.DeliveryCost)

	glove := m.Apply(q, SetDelivery{Option: "White Glove Delivery"})
	require.Equal(t, 500.0+24, glove.Totals.DeliveryCost)

	flat := m.Apply(q, SetDelivery{Option: "Flat Freight"})
	require.Equal(t, 50.0, flat.Totals.DeliveryCost)

	unknown := m.Apply(q, SetDelivery{Option: "Drone"})
	require.Zero(t, unknown.Totals.DeliveryCost)
}

func TestTaxScenario(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetProductType{Type: "window"},
		SetProductSize{Width: inches(144), Height: inches(10)},
		SetInstall{Option: "Light Install"},
		SetDelivery{Option: "Flat Freight"},
	)
	require.Equal(t, 1000.0, q.Totals.Subtotal)
	require.Equal(t, 100.0, q.Totals.InstallationCost)
	require.Equal(t, 50.0, q.Totals.DeliveryCost)
	require.Equal(t, 92.0, q.Totals.Tax)
	require.Equal(t, 1242.0, q.Totals.GrandTotal)
}

func TestUpgradesFollowGlazingAndSystemType(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetProductType{Type: "door"},
		SetProductSize{Width: inches(72), Height: inches(96)},
		SetVisualConfiguration{Panels: strptr("3"), Configuration: strptr("3L"), Track: strptr("flush")},
		SetGlazing{Tint: strptr("Gray")},
		SetSystemType{SystemType: PocketDoorSystem},
	)
	b := q.Items[0].PriceBreakdown
	require.NotNil(t, b)
	require.Equal(t, 450.0, b.GlazingCost)
	require.Equal(t, 1200.0, b.PocketDoorCost)
	require.Equal(t, 1650.0, b.TotalUpgrades)
	require.Equal(t, "3L", q.Items[0].Product.Configuration)
	require.Equal(t, "flush", q.Items[0].Product.Track)
	require.Equal(t, DefaultPanes, q.Items[0].Glazing.Panes)

	cleared := m.Apply(q, SetProductSize{Width: inches(0)})
	require.Nil(t, cleared.Items[0].PriceBreakdown)
	require.Zero(t, cleared.Totals.Subtotal)
}

func TestCalculatePricesIsIdempotent(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetProductType{Type: "door"},
		SetProductSize{Width: inches(101.3), Height: inches(83.7)},
		SetGlazing{Tint: strptr("Gray")},
		SetInstall{Option: "Professional Installation"},
		SetDelivery{Option: "Regular Delivery"},
	)
	once := m.Apply(q, CalculatePrices{})
	twice := m.Apply(once, CalculatePrices{})

	require.Equal(t, once.Totals, twice.Totals)
	require.Equal(t, *once.Items[0].PriceBreakdown, *twice.Items[0].PriceBreakdown)
}

func TestColorSymmetry(t *testing.T) {
	m := testMachine()
	bronze := Swatch{Name: "Bronze", Code: "BRZ"}
	white := Swatch{Name: "White", Code: "WHT"}

	q := m.ApplyAll(m.Default(), SetColorsSame{IsSame: false}, SetExteriorColor{Swatch: bronze})
	require.True(t, q.Items[0].Colors.Interior.IsZero())

	q = m.Apply(q, SetColorsSame{IsSame: true})
	require.Equal(t, bronze, q.Items[0].Colors.Interior)

	q = m.Apply(q, SetExteriorColor{Swatch: white})
	require.Equal(t, white, q.Items[0].Colors.Interior)

	q = m.Apply(q, SetColorsSame{IsSame: false})
	require.Equal(t, Swatch{}, q.Items[0].Colors.Interior)
	require.Equal(t, white, q.Items[0].Colors.Exterior)
	require.NoError(t, Validate(q))
}

func TestSetInteriorColorSplitsSameColors(t *testing.T) {
	m := testMachine()
	white := Swatch{Name: "White", Code: "WHT"}
	black := Swatch{Name: "Black", Code: "BLK"}

	q := m.ApplyAll(m.Default(), SetExteriorColor{Swatch: white}, SetInteriorColor{Swatch: white})
	require.True(t, q.Items[0].Colors.IsSame)

	q = m.Apply(q, SetInteriorColor{Swatch: black})
	require.False(t, q.Items[0].Colors.IsSame)
	require.Equal(t, black, q.Items[0].Colors.Interior)
	require.NoError(t, Validate(q))
}

func TestDeleteItemGuard(t *testing.T) {
	m := testMachine()
	q := m.Default()
	after := m.Apply(q, DeleteItem{Index: 0})
	require.Equal(t, q.Items, after.Items)
	require.Equal(t, 0, after.ActiveItemIndex)
}

func TestDeleteItemMovesCursor(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(), AddItem{}, AddItem{})
	require.Equal(t, 2, q.ActiveItemIndex)

	before := m.Apply(q, DeleteItem{Index: 0})
	require.Len(t, before.Items, 2)
	require.Equal(t, 1, before.ActiveItemIndex)
	require.Equal(t, "item-3", before.Items[1].ID)

	q = m.Apply(q, SetActiveItem{Index: 0})
	after := m.Apply(q, DeleteItem{Index: 2})
	require.Equal(t, 0, after.ActiveItemIndex)

	first := m.Apply(q, DeleteItem{Index: 0})
	require.Equal(t, 0, first.ActiveItemIndex)
	require.Equal(t, "item-2", first.Items[0].ID)

	outOfRange := m.Apply(q, DeleteItem{Index: 7})
	require.Equal(t, q, outOfRange)
}

func TestAddItemInheritsSystemType(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(), SetSystemType{SystemType: PocketDoorSystem}, AddItem{})
	require.Len(t, q.Items, 2)
	require.Equal(t, 1, q.ActiveItemIndex)
	require.Equal(t, PocketDoorSystem, q.Items[1].Product.SystemType)
	require.Equal(t, 1, q.Items[1].Quantity)

	blank := m.ApplyAll(m.Default(), SetSystemType{SystemType: ""}, AddItem{})
	require.Equal(t, DefaultSystemType, blank.Items[1].Product.SystemType)
}

func TestDuplicateItem(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetRoomName{RoomName: "Kitchen"},
		SetProductType{Type: "door"},
		SetProductSize{Width: inches(60), Height: inches(80)},
		AddItem{},
		DuplicateItem{Index: 0},
	)
	require.Len(t, q.Items, 3)
	require.Equal(t, 2, q.ActiveItemIndex)
	dup := q.Items[2]
	require.Equal(t, "Kitchen (Copy)", dup.RoomName)
	require.NotEqual(t, q.Items[0].ID, dup.ID)
	require.Equal(t, q.Items[0].Product, dup.Product)
	require.Equal(t, q.Totals.ItemTotals[0], q.Totals.ItemTotals[2])

	unnamed := m.Apply(q, DuplicateItem{Index: 1})
	require.Equal(t, "(Copy)", unnamed.Items[3].RoomName)

	same := m.Apply(q, DuplicateItem{Index: -1})
	require.Equal(t, q, same)
}

func TestSetItemQuantity(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(), SetProductType{Type: "door"}, SetProductSize{Width: inches(120), Height: inches(96)})

	q = m.Apply(q, SetItemQuantity{Index: 0, Quantity: 3})
	require.Equal(t, 3, q.Items[0].Quantity)
	require.Equal(t, 12000.0, q.Totals.Subtotal)

	require.Equal(t, q, m.Apply(q, SetItemQuantity{Index: 4, Quantity: 2}))
	require.Equal(t, q, m.Apply(q, SetItemQuantity{Index: 0, Quantity: 0}))
}

func TestSetActiveItemIsCursorOnly(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(), AddItem{})
	moved := m.Apply(q, SetActiveItem{Index: 0})
	require.Equal(t, 0, moved.ActiveItemIndex)
	require.Equal(t, q.Items, moved.Items)
	require.Equal(t, q.Totals, moved.Totals)

	require.Equal(t, q, m.Apply(q, SetActiveItem{Index: 5}))
	require.Equal(t, q, m.Apply(q, SetActiveItem{Index: -1}))
}

func TestCustomerDetailsMergeWithoutRepricing(t *testing.T) {
	m := testMachine()
	q := m.Apply(m.Default(), SetCustomerDetails{Patch: CustomerPatch{FirstName: strptr("Ada"), Email: strptr("ada@example.com")}})
	q = m.Apply(q, SetCustomerDetails{Patch: CustomerPatch{Phone: strptr("555-0100")}})

	require.Equal(t, "Ada", q.Customer.FirstName)
	require.Equal(t, "ada@example.com", q.Customer.Email)
	require.Equal(t, "555-0100", q.Customer.Phone)
	require.True(t, q.Customer.HasContact())
}

func TestUnknownActionReturnsInput(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(), SetProductType{Type: "door"}, AddItem{})
	require.Equal(t, q, m.Apply(q, Unknown{Type: "LAUNCH_ROCKET"}))
	require.Equal(t, q, m.Apply(q, nil))
}

func TestResetKeepsCustomerOnly(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(),
		SetCustomerDetails{Patch: CustomerPatch{LastName: strptr("Lovelace")}},
		SetProductType{Type: "door"},
		AddItem{},
		SetInstall{Option: "Professional Installation"},
		SetQuoteNumber{QuoteNumber: "Q-1001"},
	)
	reset := m.Apply(q, ResetQuote{})
	require.Equal(t, q.Customer, reset.Customer)
	require.Len(t, reset.Items, 1)
	require.Empty(t, reset.Items[0].Product.Type)
	require.Empty(t, reset.InstallOption)
	require.Empty(t, reset.QuoteNumber)
	require.Equal(t, 0, reset.ActiveItemIndex)
}

func TestHydrateStateIsVerbatim(t *testing.T) {
	m := testMachine()
	payload := Quote{
		Items:           []Item{NewItem("a", ""), NewItem("b", "")},
		ActiveItemIndex: 1,
		Totals:          Totals{Subtotal: 123, GrandTotal: 456},
		QuoteNumber:     "Q-7",
	}
	q := m.Apply(m.Default(), HydrateState{Quote: payload})
	require.Equal(t, payload, q)

	empty := m.Apply(m.Default(), HydrateState{Quote: Quote{ActiveItemIndex: 3}})
	require.NoError(t, Validate(empty))
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	m := testMachine()
	q := m.ApplyAll(m.Default(), SetProductType{Type: "door"}, AddItem{})
	snapshot := q
	snapshot.Items = append([]Item(nil), q.Items...)

	_ = m.Apply(q, SetRoomName{RoomName: "Den"})
	_ = m.Apply(q, DeleteItem{Index: 0})
	_ = m.Apply(q, SetItemQuantity{Index: 0, Quantity: 9})
	require.Equal(t, snapshot, q)
}

func TestInvariantsHoldUnderRandomActions(t *testing.T) {
	m := testMachine()
	rng := rand.New(rand.NewSource(42))
	swatches := []Swatch{{}, {Name: "White", Code: "WHT"}, {Name: "Black", Code: "BLK"}}
	randomAction := func(n int) Action {
		idx := rng.Intn(n+2) - 1
		switch rng.Intn(14) {
		case 0:
			return AddItem{}
		case 1:
			return DeleteItem{Index: idx}
		case 2:
			return DuplicateItem{Index: idx}
		case 3:
			return SetActiveItem{Index: idx}
		case 4:
			return SetItemQuantity{Index: idx, Quantity: rng.Intn(4) - 1}
		case 5:
			return SetProductSize{Width: inches(float64(rng.Intn(200))), Height: inches(float64(rng.Intn(120)))}
		case 6:
			return SetExteriorColor{Swatch: swatches[rng.Intn(len(swatches))]}
		case 7:
			return SetInteriorColor{Swatch: swatches[rng.Intn(len(swatches))]}
		case 8:
			return SetColorsSame{IsSame: rng.Intn(2) == 0}
		case 9:
			return SetVisualConfiguration{Panels: strptr(fmt.Sprint(rng.Intn(6)))}
		case 10:
			return ResetQuote{}
		case 11:
			return SetDelivery{Option: "Regular Delivery"}
		case 12:
			return CalculatePrices{}
		default:
			return Unknown{Type: "NOPE"}
		}
	}

	q := m.Default()
	for step := 0; step < 5000; step++ {
		q = m.Apply(q, randomAction(len(q.Items)))
		require.NoError(t, Validate(q), "step %d", step)
		require.Len(t, q.Totals.ItemTotals, len(q.Items), "step %d", step)
	}
}
