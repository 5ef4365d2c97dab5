package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/cellknn/tensor"
)

// ReadMatrixCSV decodes a headerless CSV of floats into a dense
// [n_rows, n_cols] matrix. All records must have the same width.
func ReadMatrixCSV(r io.Reader) (*tensor.Dense[float32], error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read matrix csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("matrix csv is empty")
	}

	cols := len(records[0])
	data := make([]float32, 0, len(records)*cols)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i, len(rec), cols)
		}
		for _, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			data = append(data, float32(v))
		}
	}

	return tensor.FromSlice(data, len(records), cols)
}

// decompressor wraps r according to the blob name's extension.
// Plain names pass through; ".gz" uses gzip, ".lz4" uses lz4.
func decompressor(name string, r io.Reader) (io.Reader, func() error, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip matrix %q: %w", name, err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(name, ".lz4"):
		return lz4.NewReader(r), func() error { return nil }, nil
	default:
		return r, func() error { return nil }, nil
	}
}
