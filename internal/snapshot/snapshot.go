package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-quote/internal/common"
	"github.com/noah-isme/backend-quote/internal/obs"
	"github.com/noah-isme/backend-quote/internal/quote"
)

// Adapter saves and restores one quote under a fixed key.
type Adapter struct {
	Store   Store
	Key     string
	Machine *quote.Machine
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewAdapter constructs an Adapter for key on store.
func NewAdapter(store Store, key string, machine *quote.Machine, logger zerolog.Logger) *Adapter {
	return &Adapter{
		Store:   store,
		Key:     key,
		Machine: machine,
		Logger:  logger.With().Str("snapshot_key", key).Logger(),
		Now:     time.Now,
	}
}

// Meaningful reports whether q holds anything worth persisting: a customer
// contact field, or an item with a product type or a dimension.
func Meaningful(q quote.Quote) bool {
	if q.Customer.HasContact() {
		return true
	}
	for _, it := range q.Items {
		if it.Product.Type != "" || it.Product.Width > 0 || it.Product.Height > 0 {
			return true
		}
	}
	return false
}

// Save writes q when it is meaningful. It reports whether a write happened.
func (a *Adapter) Save(ctx context.Context, q quote.Quote) (bool, error) {
	if !Meaningful(q) {
		obs.RecordSnapshotWrite(obs.SnapshotSkipped)
		return false, nil
	}
	data, err := Encode(q, a.now())
	if err != nil {
		obs.RecordSnapshotWrite(obs.SnapshotError)
		return false, err
	}
	if err := a.Store.Set(ctx, a.Key, data); err != nil {
		obs.RecordSnapshotWrite(obs.SnapshotError)
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	obs.RecordSnapshotWrite(obs.SnapshotWritten)
	return true, nil
}

// Load returns the persisted quote. Missing, unreadable or malformed snapshots
// are logged and reported as absent.
func (a *Adapter) Load(ctx context.Context) (quote.Quote, bool) {
	data, ok, err := a.Store.Get(ctx, a.Key)
	if err != nil {
		obs.RecordSnapshotLoad(obs.SnapshotError)
		a.Logger.Warn().Err(err).Msg("snapshot read failed")
		return quote.Quote{}, false
	}
	if !ok {
		obs.RecordSnapshotLoad(obs.SnapshotMiss)
		return quote.Quote{}, false
	}
	q, err := Decode(data, a.Machine)
	if err != nil {
		obs.RecordSnapshotLoad(obs.SnapshotError)
		a.Logger.Warn().Err(err).Int("bytes", len(data)).Msg("snapshot discarded")
		return quote.Quote{}, false
	}
	if err := quote.Validate(q); err != nil {
		a.Logger.Warn().Err(err).Msg("snapshot loaded with invariant violations")
	}
	obs.RecordSnapshotLoad(obs.SnapshotHit)
	return q, true
}

// Clear removes the persisted snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.Store.Delete(ctx, a.Key); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (a *Adapter) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Encode serializes q in the current envelope.
func Encode(q quote.Quote, savedAt time.Time) ([]byte, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode quote: %w", err)
	}
	return json.Marshal(envelope{Version: CurrentVersion, SavedAt: savedAt.UTC(), Quote: body})
}

// wireQuote shadows Items so each item can be merged onto a default template.
type wireQuote struct {
	quote.Quote
	Items []json.RawMessage `json:"items"`
}

// wireItem decodes over a template item. Quantity is shadowed so older
// snapshots that stored it as a string still load.
type wireItem struct {
	*quote.Item
	Quantity json.RawMessage `json:"quantity"`
	Colors   *wireColors     `json:"colors"`
}

// wireColors records whether isSame was present on the persisted item.
type wireColors struct {
	quote.Colors
	IsSame *bool `json:"isSame"`
}

// Decode parses a snapshot of any known version. Each persisted item is
// decoded over a freshly defaulted item, so fields missing from older
// snapshots keep their defaults while persisted values win.
func Decode(data []byte, m *quote.Machine) (quote.Quote, error) {
	env, err := upgrade(data)
	if err != nil {
		return quote.Quote{}, err
	}
	var w wireQuote
	if err := json.Unmarshal(env.Quote, &w); err != nil {
		return quote.Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	q := w.Quote
	q.Items = make([]quote.Item, 0, len(w.Items))
	for i, raw := range w.Items {
		it, err := decodeItem(raw, m.NewItem(""))
		if err != nil {
			return quote.Quote{}, fmt.Errorf("decode item %d: %w", i, err)
		}
		q.Items = append(q.Items, repairItem(it))
	}
	return m.Apply(quote.Quote{}, quote.HydrateState{Quote: q}), nil
}

func decodeItem(raw json.RawMessage, it quote.Item) (quote.Item, error) {
	colors := &wireColors{Colors: it.Colors}
	w := wireItem{Item: &it, Colors: colors}
	if err := json.Unmarshal(raw, &w); err != nil {
		return quote.Item{}, err
	}
	if len(w.Quantity) > 0 {
		it.Quantity = decodeQuantity(w.Quantity)
	}
	if w.Colors != nil {
		c := colors.Colors
		if colors.IsSame != nil {
			c.IsSame = *colors.IsSame
		} else {
			c.IsSame = c.Interior.IsZero() || c.Interior == c.Exterior
		}
		it.Colors = c
	}
	return it, nil
}

// decodeQuantity accepts a JSON number or numeric string; anything else is 1.
func decodeQuantity(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 1 || n > math.MaxInt32 {
			return 1
		}
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return common.AtoiDefault(strings.TrimSpace(s), 1)
	}
	return 1
}

func repairItem(it quote.Item) quote.Item {
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if it.Colors.IsSame {
		it.Colors.Interior = it.Colors.Exterior
	}
	if it.Product.SystemType == "" {
		it.Product.SystemType = quote.DefaultSystemType
	}
	return it
}
