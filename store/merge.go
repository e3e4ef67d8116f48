package store

import (
	"fmt"
	"os"
	"path/filepath"
)

func readAll(files []string) ([]TurnRow, error) {
	var rows []TurnRow
	for _, f := range files {
		r, err := ReadRows(f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

// Export copies every recorded row under dir into the single file outPath.
// It returns the number of rows written.
func Export(dir, outPath string) (int, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, ErrNoRows
	}
	rows, err := readAll(files)
	if err != nil {
		return 0, err
	}
	if err := WriteEpisodesParquet(outPath, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Compact merges the parquet files directly in dir into one batch file and
// removes the originals. Subdirectories are left alone. It returns the new
// file and how many files it replaced.
func Compact(dir string) (string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".parquet" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return "", 0, ErrNoRows
	}

	rows, err := readAll(files)
	if err != nil {
		return "", 0, err
	}
	out, err := WriteBatchParquetAtomic(dir, rows)
	if err != nil {
		return "", 0, err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return out, 0, fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return out, len(files), nil
}
