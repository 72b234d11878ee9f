// Package export writes stored tables to CSV files for offline analysis.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"lolstats/internal/store"
)

// Tables writes every entity table to dir as <table>_export.csv and returns
// the per-table row counts.
func Tables(ctx context.Context, st store.Store, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	counts := make(map[string]int, len(store.Tables))
	for _, table := range store.Tables {
		n, err := Table(ctx, st, table, dir)
		if err != nil {
			return counts, err
		}
		counts[table] = n
	}
	return counts, nil
}

// Table writes one table to dir and returns the number of data rows written.
func Table(ctx context.Context, st store.Store, table, dir string) (int, error) {
	header, rows, err := st.Rows(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", table, err)
	}

	path := filepath.Join(dir, table+"_export.csv")
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}

	return len(rows), nil
}
