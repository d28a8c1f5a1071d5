package quote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is the wire name of an action.
type Kind string

// Action kinds understood by the state machine.
const (
	KindSetCustomerDetails     Kind = "SET_CUSTOMER_DETAILS"
	KindSetProductType         Kind = "SET_PRODUCT_TYPE"
	KindSetProductSize         Kind = "SET_PRODUCT_SIZE"
	KindSetConfiguration       Kind = "SET_CONFIGURATION"
	KindSetVisualConfiguration Kind = "SET_VISUAL_CONFIGURATION"
	KindSetSystemType          Kind = "SET_SYSTEM_TYPE"
	KindSetExteriorColor       Kind = "SET_EXTERIOR_COLOR"
	KindSetInteriorColor       Kind = "SET_INTERIOR_COLOR"
	KindSetColorsSame          Kind = "SET_COLORS_SAME"
	KindSetGlazing             Kind = "SET_GLAZING"
	KindSetHardware            Kind = "SET_HARDWARE"
	KindSetRoomName            Kind = "SET_ROOM_NAME"
	KindSetInstall             Kind = "SET_INSTALL"
	KindSetDelivery            Kind = "SET_DELIVERY"
	KindAddItem                Kind = "ADD_ITEM"
	KindDeleteItem             Kind = "DELETE_ITEM"
	KindDuplicateItem          Kind = "DUPLICATE_ITEM"
	KindSetItemQuantity        Kind = "SET_ITEM_QUANTITY"
	KindSetActiveItem          Kind = "SET_ACTIVE_ITEM"
	KindCalculatePrices        Kind = "CALCULATE_PRICES"
	KindResetQuote             Kind = "RESET_QUOTE"
	KindHydrateState           Kind = "HYDRATE_STATE"
	KindSetQuoteNumber         Kind = "SET_QUOTE_NUMBER"
)

// ErrInvalidPayload is returned when an action payload cannot be decoded.
var ErrInvalidPayload = errors.New("invalid action payload")

// Action is a single state transition request.
type Action interface {
	Kind() Kind
}

// CustomerPatch carries the customer fields to overwrite; nil fields are left alone.
type CustomerPatch struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	ZipCode      *string `json:"zipCode,omitempty"`
	CustomerType *string `json:"customerType,omitempty"`
	Timeline     *string `json:"timeline,omitempty"`
	HeardAboutUs *string `json:"heardAboutUs,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (p CustomerPatch) applyTo(c Customer) Customer {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FirstName, p.FirstName)
	set(&c.LastName, p.LastName)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.ZipCode, p.ZipCode)
	set(&c.CustomerType, p.CustomerType)
	set(&c.Timeline, p.Timeline)
	set(&c.HeardAboutUs, p.HeardAboutUs)
	set(&c.Notes, p.Notes)
	return c
}

type (
	SetCustomerDetails struct{ Patch CustomerPatch }
	SetProductType     struct {
		Type string `json:"type"`
	}
	// SetProductSize updates whichever dimensions are present.
	SetProductSize struct {
		Width  *Inches `json:"width,omitempty"`
		Height *Inches `json:"height,omitempty"`
	}
	SetConfiguration struct {
		Configuration string `json:"configuration"`
	}
	// SetVisualConfiguration is emitted by the visual configurator, which
	// edits layout, panel count and track together.
	SetVisualConfiguration struct {
		Configuration *string `json:"configuration,omitempty"`
		Panels        *string `json:"panels,omitempty"`
		Track         *string `json:"track,omitempty"`
	}
	SetSystemType struct {
		SystemType string `json:"systemType"`
	}
	SetExteriorColor struct{ Swatch Swatch }
	SetInteriorColor struct{ Swatch Swatch }
	SetColorsSame    struct {
		IsSame bool `json:"isSame"`
	}
	SetGlazing struct {
		Panes *string `json:"panes,omitempty"`
		Tint  *string `json:"tint,omitempty"`
	}
	SetHardware struct {
		Finish string `json:"hardwareFinish"`
	}
	SetRoomName struct {
		RoomName string `json:"roomName"`
	}
	SetInstall struct {
		Option string `json:"installOption"`
	}
	SetDelivery struct {
		Option string `json:"deliveryOption"`
	}
	AddItem    struct{}
	DeleteItem struct {
		Index int `json:"index"`
	}
	DuplicateItem struct {
		Index int `json:"index"`
	}
	SetItemQuantity struct {
		Index    int `json:"index"`
		Quantity int `json:"quantity"`
	}
	SetActiveItem struct {
		Index int `json:"index"`
	}
	CalculatePrices struct{}
	ResetQuote      struct{}
	HydrateState    struct{ Quote Quote }
	SetQuoteNumber  struct {
		QuoteNumber string `json:"quoteNumber"`
	}
	// Unknown is any action type the machine does not recognise.
	Unknown struct{ Type string }
)

func (SetCustomerDetails) Kind() Kind     { return KindSetCustomerDetails }
func (SetProductType) Kind() Kind         { return KindSetProductType }
func (SetProductSize) Kind() Kind         { return KindSetProductSize }
func (SetConfiguration) Kind() Kind       { return KindSetConfiguration }
func (SetVisualConfiguration) Kind() Kind { return KindSetVisualConfiguration }
func (SetSystemType) Kind() Kind          { return KindSetSystemType }
func (SetExteriorColor) Kind() Kind       { return KindSetExteriorColor }
func (SetInteriorColor) Kind() Kind       { return KindSetInteriorColor }
func (SetColorsSame) Kind() Kind          { return KindSetColorsSame }
func (SetGlazing) Kind() Kind             { return KindSetGlazing }
func (SetHardware) Kind() Kind            { return KindSetHardware }
func (SetRoomName) Kind() Kind            { return KindSetRoomName }
func (SetInstall) Kind() Kind             { return KindSetInstall }
func (SetDelivery) Kind() Kind            { return KindSetDelivery }
func (AddItem) Kind() Kind                { return KindAddItem }
func (DeleteItem) Kind() Kind             { return KindDeleteItem }
func (DuplicateItem) Kind() Kind          { return KindDuplicateItem }
func (SetItemQuantity) Kind() Kind        { return KindSetItemQuantity }
func (SetActiveItem) Kind() Kind          { return KindSetActiveItem }
func (CalculatePrices) Kind() Kind        { return KindCalculatePrices }
func (ResetQuote) Kind() Kind             { return KindResetQuote }
func (HydrateState) Kind() Kind           { return KindHydrateState }
func (SetQuoteNumber) Kind() Kind         { return KindSetQuoteNumber }
func (u Unknown) Kind() Kind              { return Kind(u.Type) }

// DecodeAction decodes the wire form {"type": ..., "payload": ...}.
func DecodeAction(data []byte) (Action, error) {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return ParseAction(env.Type, env.Payload)
}

// ParseAction builds an action from its type and raw payload. Unrecognised
// types yield Unknown without error.
func ParseAction(kind string, payload json.RawMessage) (Action, error) {
	kind = strings.TrimSpace(kind)
	switch Kind(kind) {
	case KindSetCustomerDetails:
		p, err := decodeInto[CustomerPatch](kind, payload)
		return SetCustomerDetails{Patch: p}, err
	case KindSetProductType:
		return decodeInto[SetProductType](kind, payload)
	case KindSetProductSize:
		return decodeInto[SetProductSize](kind, payload)
	case KindSetConfiguration:
		return decodeInto[SetConfiguration](kind, payload)
	case KindSetVisualConfiguration:
		return decodeInto[SetVisualConfiguration](kind, payload)
	case KindSetSystemType:
		return decodeInto[SetSystemType](kind, payload)
	case KindSetExteriorColor:
		s, err := decodeInto[Swatch](kind, payload)
		return SetExteriorColor{Swatch: s}, err
	case KindSetInteriorColor:
		s, err := decodeInto[Swatch](kind, payload)
		return SetInteriorColor{Swatch: s}, err
	case KindSetColorsSame:
		return decodeInto[SetColorsSame](kind, payload)
	case KindSetGlazing:
		return decodeInto[SetGlazing](kind, payload)
	case KindSetHardware:
		return decodeInto[SetHardware](kind, payload)
	case KindSetRoomName:
		return decodeInto[SetRoomName](kind, payload)
	case KindSetInstall:
		return decodeInto[SetInstall](kind, payload)
	case KindSetDelivery:
		return decodeInto[SetDelivery](kind, payload)
	case KindAddItem:
		return AddItem{}, nil
	case KindDeleteItem:
		return decodeInto[DeleteItem](kind, payload)
	case KindDuplicateItem:
		return decodeInto[DuplicateItem](kind, payload)
	case KindSetItemQuantity:
		return decodeInto[SetItemQuantity](kind, payload)
	case KindSetActiveItem:
		return decodeInto[SetActiveItem](kind, payload)
	case KindCalculatePrices:
		return CalculatePrices{}, nil
	case KindResetQuote:
		return ResetQuote{}, nil
	case KindHydrateState:
		q, err := decodeInto[Quote](kind, payload)
		return HydrateState{Quote: q}, err
	case KindSetQuoteNumber:
		return decodeInto[SetQuoteNumber](kind, payload)
	default:
		return Unknown{Type: kind}, nil
	}
}

func decodeInto[T any](kind string, payload json.RawMessage) (T, error) {
	var v T
	err := decodePayload(kind, payload, &v)
	return v, err
}

func decodePayload(kind string, payload json.RawMessage, dst any) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%s: %w: %v", kind, ErrInvalidPayload, err)
	}
	return nil
}
