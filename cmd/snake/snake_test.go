package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	t.Logf("stderr:\n%s", errOut.String())
	return out.String(), err
}

func TestSelfPlayThenStats(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "selfplay",
		"--out-dir", dir,
		"--episodes", "6",
		"--workers", "2",
		"--size", "6",
		"--max-turns", "40",
		"--episodes-per-flush", "3",
		"--policy", "random",
		"--seed", "11",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "episodes 6")

	files, err := store.ListFiles(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, files)

	out, err = run(t, "stats", "--json", dir)
	require.NoError(t, err)
	var sum store.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, int64(6), sum.Episodes)
	assert.Positive(t, sum.Turns)

	out, err = run(t, "stats", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "episodes    6")
}

func TestStats_EmptyDir(t *testing.T) {
	_, err := run(t, "stats", t.TempDir())
	assert.ErrorIs(t, err, store.ErrNoRows)
}

func TestBench(t *testing.T) {
	out, err := run(t, "bench", "--turns", "2000", "--size", "8", "--policy", "greedy")
	require.NoError(t, err)
	assert.Contains(t, out, "2000 turns over")
	assert.Contains(t, out, "policy greedy, size 8")

	_, err = run(t, "bench", "--policy", "psychic")
	assert.Error(t, err)
}

func TestConfigFileAndFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  size: 5\nlog:\n  level: debug\n"), 0o644))

	out, err := run(t, "--config", path, "bench", "--turns", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "size 5")

	out, err = run(t, "--config", path, "bench", "--turns", "10", "--size", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "size 7")
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  size: 1\n"), 0o644))
	_, err := run(t, "--config", path, "bench")
	assert.ErrorContains(t, err, "invalid config")

	_, err = run(t, "--log-format", "xml", "bench", "--turns", "1")
	assert.ErrorContains(t, err, "unknown log format")

	_, err = run(t, "bench", "--size", "1")
	assert.ErrorContains(t, err, "invalid config")
}

func TestStats_ExportAndCompact(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "selfplay",
		"--out-dir", dir,
		"--episodes", "4",
		"--workers", "1",
		"--size", "6",
		"--max-turns", "30",
		"--episodes-per-flush", "1",
		"--policy", "random",
		"--seed", "3",
	)
	require.NoError(t, err)
	before, err := store.ListFiles(dir)
	require.NoError(t, err)
	require.Greater(t, len(before), 1)

	export := filepath.Join(t.TempDir(), "all.parquet")
	out, err := run(t, "stats", "--compact", "--export", export, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "episodes    4")

	after, err := store.ListFiles(dir)
	require.NoError(t, err)
	assert.Len(t, after, 1)

	rows, err := store.ReadRows(export)
	require.NoError(t, err)
	merged, err := store.ReadRows(after[0])
	require.NoError(t, err)
	assert.Len(t, rows, len(merged))
}

func TestConfigInit(t *testing.T) {
	out, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "selfplay:")

	path := filepath.Join(t.TempDir(), "snake.yaml")
	_, err = run(t, "config", "init", path)
	require.NoError(t, err)

	// the written file loads back and drives the next run
	out, err = run(t, "--config", path, "bench", "--turns", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "size 10")

	_, err = run(t, "config", "init", path)
	assert.Error(t, err, "existing file needs --force")
	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestReplay(t *testing.T) {
	snap := game.Snapshot{
		Size:    6,
		Seed:    4,
		Turn:    10,
		Heading: game.Right,
		Body:    []game.Coord{{X: 3, Y: 3}, {X: 2, Y: 3}},
		Food:    game.Coord{X: 0, Y: 0},
		Alive:   true,
	}
	b, err := json.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	out, err := run(t, "replay", "--json", "--turns", "2", "--policy", "scripted:ul", path)
	require.NoError(t, err)
	var end game.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &end))
	assert.Equal(t, 12, end.Turn)
	assert.Equal(t, []game.Coord{{X: 2, Y: 2}, {X: 3, Y: 2}}, end.Body)

	out, err = run(t, "replay", "--turns", "1", "--policy", "scripted:u", path)
	require.NoError(t, err)
	assert.Contains(t, out, "turn 11  length 2  alive true")

	require.NoError(t, os.WriteFile(path, []byte(`{"size":1}`), 0o644))
	_, err = run(t, "replay", path)
	assert.ErrorIs(t, err, game.ErrBadSnapshot)
}
