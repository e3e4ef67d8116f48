package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// episode builds n rows for one episode; the last row ends it with cause
// unless cause is empty.
func episode(id string, n int, cause string) []TurnRow {
	rows := make([]TurnRow, n)
	for i := range rows {
		rows[i] = TurnRow{
			EpisodeID: id,
			Policy:    "test",
			Seed:      uint64(len(id)),
			Size:      10,
			Turn:      int32(i + 1),
			Heading:   "right",
			HeadX:     int32(5 + i),
			HeadY:     4,
			FoodX:     9,
			FoodY:     4,
			Features:  make([]float32, 24),
			Action:    4,
			Reward:    0.5,
			Length:    int32(2 + i/2),
			Cause:     "none",
		}
	}
	if cause != "" {
		rows[n-1].Done = true
		rows[n-1].Cause = cause
		rows[n-1].Reward = -1
	}
	return rows
}

func TestWriteBatchParquetAtomic_ReadBack(t *testing.T) {
	dir := t.TempDir()
	rows := episode("ep-1", 3, "wall")
	rows[1].Features[7] = 0.25

	path, err := WriteBatchParquetAtomic(dir, rows)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	tmpEntries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmpEntries, "tmp file should have been renamed away")

	got, err := ReadRows(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteEpisodesParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "one.parquet")
	require.NoError(t, WriteEpisodesParquet(path, episode("ep-2", 2, "self")))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "self", got[1].Cause)
}

func TestReadRows_Missing(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

func TestListFiles_SkipsTmp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tmp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp", "half.parquet"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.parquet"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.parquet"), nil, 0o644))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.parquet"), filepath.Join(dir, "b.parquet")}, files)
}

func TestBatchWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.WriteEpisode(episode("a", 4, "wall")))
	require.NoError(t, w.WriteEpisode(nil))
	require.NoError(t, w.WriteEpisode(episode("b", 2, "self")))
	assert.Equal(t, 2, w.Episodes())
	assert.Equal(t, 6, w.Rows())

	path, rows, episodes, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 6, rows)
	assert.Equal(t, 2, episodes)
	assert.Equal(t, w.OutPath(), path)

	got, err := ReadRows(path)
	require.NoError(t, err)
	assert.Len(t, got, 6)

	assert.Error(t, w.WriteEpisode(episode("c", 1, "")), "closed writer")
	path, _, _, err = w.Finalize()
	assert.NoError(t, err)
	assert.Empty(t, path)
}

func TestBatchWriter_EmptyLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter(dir)
	require.NoError(t, err)

	path, rows, _, err := w.Finalize()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, rows)

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteBatchParquetAtomic(dir, append(episode("a", 4, "wall"), episode("b", 6, "self")...))
	require.NoError(t, err)
	_, err = WriteBatchParquetAtomic(filepath.Join(dir, "more"), episode("c", 2, ""))
	require.NoError(t, err)

	s, err := Summarize(context.Background(), dir)
	require.NoError(t, err)
	t.Logf("summary: %+v", s)

	assert.Equal(t, 2, s.Files)
	assert.Equal(t, int64(3), s.Episodes)
	assert.Equal(t, int64(12), s.Turns)
	assert.Equal(t, int64(2), s.Finished)
	// final lengths: a=3, b=4, c=2
	assert.Equal(t, int64(4), s.MaxLength)
	assert.InDelta(t, 3.0, s.MeanLength, 1e-9)
	assert.Equal(t, map[string]int64{"self": 1, "wall": 1}, s.Causes)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteBatchParquetAtomic(dir, episode("a", 3, "wall"))
	require.NoError(t, err)
	_, err = WriteBatchParquetAtomic(filepath.Join(dir, "more"), episode("b", 2, "self"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "all.parquet")
	n, err := Export(dir, out)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := ReadRows(out)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = Export(t.TempDir(), out)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestCompact(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"a", "b", "c"} {
		_, err := WriteBatchParquetAtomic(dir, episode(id, 2, "wall"))
		require.NoError(t, err)
	}
	nested := filepath.Join(dir, "keep")
	_, err := WriteBatchParquetAtomic(nested, episode("d", 2, ""))
	require.NoError(t, err)

	out, replaced, err := Compact(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, replaced)

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2, "one compacted file plus the nested one")
	assert.Contains(t, files, out)

	rows, err := ReadRows(out)
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	sum, err := Summarize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Episodes)

	_, _, err = Compact(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRows)
}
