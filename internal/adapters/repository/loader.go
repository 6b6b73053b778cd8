package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fieldops/techrank/internal/domain/model"
)

// Dataset formats understood by Load.
const (
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

// Load reads the dataset at path in the given format and builds a MemStore.
func Load(ctx context.Context, path, format string, opts ...Option) (*MemStore, error) {
	var (
		ds  model.Dataset
		err error
	)
	switch strings.ToLower(format) {
	case "", FormatJSON:
		ds, err = ReadJSONFile(path)
	case FormatSQLite:
		ds, err = ReadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return NewMemStore(ctx, ds, opts...)
}

// ReadJSONFile decodes a dataset from a JSON file.
func ReadJSONFile(path string) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer func() { _ = f.Close() }()
	return ReadJSON(f)
}

// ReadJSON decodes a dataset from r.
func ReadJSON(r io.Reader) (model.Dataset, error) {
	var ds model.Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return model.Dataset{}, fmt.Errorf("%w: decode json: %w", ErrLoad, err)
	}
	return ds, nil
}

// WriteJSON encodes ds to w with indentation.
func WriteJSON(w io.Writer, ds model.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}
