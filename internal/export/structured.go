package export

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"dailyspend/internal/core"
)

// YAMLCodec writes the snapshot as {categories, expenses}.
type YAMLCodec struct{}

func (YAMLCodec) Encode(w io.Writer, snap core.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(withEmptySlices(snap)); err != nil {
		return err
	}
	return enc.Close()
}

func (YAMLCodec) Decode(r io.Reader) (core.Snapshot, error) {
	var snap core.Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		if err == io.EOF {
			return core.Snapshot{}, ErrNoRows
		}
		return core.Snapshot{}, err
	}
	return snap, nil
}

// JSONCodec writes the snapshot as {categories, expenses}.
type JSONCodec struct{}

func (JSONCodec) Encode(w io.Writer, snap core.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(withEmptySlices(snap))
}

func (JSONCodec) Decode(r io.Reader) (core.Snapshot, error) {
	var snap core.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		if err == io.EOF {
			return core.Snapshot{}, ErrNoRows
		}
		return core.Snapshot{}, err
	}
	return snap, nil
}

func withEmptySlices(snap core.Snapshot) core.Snapshot {
	if snap.Categories == nil {
		snap.Categories = []core.Category{}
	}
	if snap.Expenses == nil {
		snap.Expenses = []core.Expense{}
	}
	return snap
}
