package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"sumator/internal/core"
)

// stateVersion is written with every envelope. Version 0 is the layout of
// the browser app this store replaces and is read without migration.
const stateVersion = 1

type (
	envelope struct {
		State   json.RawMessage `json:"state"`
		Version int             `json:"version"`
	}

	recordsState struct {
		Items []core.Record `json:"items"`
	}

	identityState struct {
		CurrentUser *core.Identity `json:"currentUser"`
	}
)

var errMissingState = errors.New("envelope has no state")

func encodeRecords(items []core.Record) ([]byte, error) {
	if items == nil {
		items = []core.Record{}
	}
	return encodeEnvelope(recordsState{Items: items})
}

func encodeIdentity(id *core.Identity) ([]byte, error) {
	return encodeEnvelope(identityState{CurrentUser: id})
}

func encodeEnvelope(state any) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{State: raw, Version: stateVersion})
}

// decodeRecords accepts the versioned envelope or a bare JSON array, and
// rejects records that break the id or date invariants.
func decodeRecords(blob []byte) ([]core.Record, error) {
	blob = bytes.TrimSpace(blob)
	var items []core.Record
	if len(blob) > 0 && blob[0] == '[' {
		if err := json.Unmarshal(blob, &items); err != nil {
			return nil, err
		}
	} else {
		raw, err := openEnvelope(blob)
		if err != nil {
			return nil, err
		}
		var st recordsState
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, err
		}
		items = st.Items
	}

	seen := make(map[int64]struct{}, len(items))
	for i, r := range items {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("item %d: %w", i, &core.DuplicateIDError{ID: r.ID})
		}
		seen[r.ID] = struct{}{}
	}
	if items == nil {
		items = []core.Record{}
	}
	return items, nil
}

func decodeIdentity(blob []byte) (*core.Identity, error) {
	raw, err := openEnvelope(bytes.TrimSpace(blob))
	if err != nil {
		return nil, err
	}
	var st identityState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return st.CurrentUser, nil
}

func openEnvelope(blob []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, err
	}
	if env.Version < 0 || env.Version > stateVersion {
		return nil, fmt.Errorf("unsupported state version %d", env.Version)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return nil, errMissingState
	}
	return env.State, nil
}
