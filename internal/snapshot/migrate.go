package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = 2

// ErrUnsupportedVersion is returned for snapshots written by a newer schema or with a gap in the migration chain.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported schema version")

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Quote   json.RawMessage `json:"quote"`
}

type migration func(json.RawMessage) (json.RawMessage, error)

// migrations[n] upgrades a version n quote body to version n+1.
var migrations = map[int]migration{
	1: migrateV1,
}

// upgrade reads any known snapshot layout and returns a current-version envelope.
func upgrade(data []byte) (envelope, error) {
	env, err := detect(data)
	if err != nil {
		return envelope{}, err
	}
	if env.Version > CurrentVersion {
		return envelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	for env.Version < CurrentVersion {
		m, ok := migrations[env.Version]
		if !ok {
			return envelope{}, fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, env.Version)
		}
		body, err := m(env.Quote)
		if err != nil {
			return envelope{}, fmt.Errorf("migrate v%d: %w", env.Version, err)
		}
		env.Quote = body
		env.Version++
	}
	return env, nil
}

// detect distinguishes a versioned envelope from the legacy bare quote (version 1).
func detect(data []byte) (envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return envelope{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if fields == nil {
		return envelope{}, errors.New("decode snapshot: null document")
	}
	if _, ok := fields["version"]; !ok {
		return envelope{Version: 1, Quote: data}, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("decode snapshot envelope: %w", err)
	}
	if env.Version < 1 {
		return envelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return env, nil
}

// migrateV1 coerces numeric panel counts, which older clients wrote as JSON numbers, into strings.
func migrateV1(body json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	items, _ := doc["items"].([]any)
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		product, ok := item["product"].(map[string]any)
		if !ok {
			continue
		}
		if n, ok := product["panels"].(json.Number); ok {
			product["panels"] = n.String()
		}
	}
	return json.Marshal(doc)
}
