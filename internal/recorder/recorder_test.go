package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecorder_Record(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	err := rec.Record(ctx, &EpisodeRecord{Episode: 1})
	require.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, rec.Start("", "test", false))
	assert.NotEmpty(t, rec.RunID())

	first := &EpisodeRecord{Episode: 1, Steps: 5, Reward: 5, Status: "done"}
	require.NoError(t, rec.Record(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, rec.RunID(), first.RunID)
	assert.False(t, first.Timestamp.IsZero())

	require.NoError(t, rec.Record(ctx, &EpisodeRecord{Episode: 2, Steps: 100, Reward: 2, Status: "timeout"}))

	stats := rec.Stats()
	assert.Equal(t, 2, stats.Episodes)
	assert.Equal(t, 105, stats.TotalSteps)
	assert.InDelta(t, 3.5, stats.MeanReward, 1e-9)
	assert.Equal(t, 1, stats.EpisodesByStatus["done"])
	assert.Equal(t, 1, stats.EpisodesByStatus["timeout"])
	require.NotNil(t, stats.OldestTimestamp)
	require.NotNil(t, stats.NewestTimestamp)

	require.NoError(t, rec.Close())
	assert.True(t, rec.Closed())
}

func TestMemoryRecorder_RestartRequiresOverwrite(t *testing.T) {
	rec := NewMemoryRecorder()
	require.NoError(t, rec.Start("", "test", false))
	require.NoError(t, rec.Record(context.Background(), &EpisodeRecord{Episode: 1}))

	assert.ErrorIs(t, rec.Start("", "test", false), ErrRunExists)

	require.NoError(t, rec.Start("", "test", true))
	assert.Empty(t, rec.Records())
}

func TestFileRecorder_WritesRun(t *testing.T) {
	dir := t.TempDir()
	rec := NewFileRecorder(map[string]any{"env_id": "cartpole"})
	ctx := context.Background()

	require.NoError(t, rec.Start(dir, "eval", false))
	for i := 1; i <= 3; i++ {
		require.NoError(t, rec.Record(ctx, &EpisodeRecord{Episode: i, Steps: 5, Reward: 5, Status: "done"}))
	}
	require.NoError(t, rec.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "eval.manifest.json"))
	require.NoError(t, err)
	var m manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, rec.RunID(), m.RunID)
	assert.Equal(t, "eval", m.Tag)

	file, err := os.Open(filepath.Join(dir, "eval.episodes.jsonl"))
	require.NoError(t, err)
	defer file.Close()
	scanner := bufio.NewScanner(file)
	lines := 0
	for scanner.Scan() {
		var r EpisodeRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		lines++
		assert.Equal(t, lines, r.Episode)
		assert.Equal(t, rec.RunID(), r.RunID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 3, lines)

	raw, err = os.ReadFile(filepath.Join(dir, "eval.summary.json"))
	require.NoError(t, err)
	var s Stats
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, 3, s.Episodes)
	assert.Equal(t, 15, s.TotalSteps)
	assert.InDelta(t, 5.0, s.MeanReward, 1e-9)
}

func TestFileRecorder_Overwrite(t *testing.T) {
	dir := t.TempDir()

	first := NewFileRecorder(nil)
	require.NoError(t, first.Start(dir, "eval", false))
	require.NoError(t, first.Close())

	second := NewFileRecorder(nil)
	err := second.Start(dir, "eval", false)
	assert.ErrorIs(t, err, ErrRunExists)

	require.NoError(t, second.Start(dir, "eval", true))
	assert.NotEqual(t, first.RunID(), second.RunID())
	require.NoError(t, second.Close())

	// A different tag never collides.
	third := NewFileRecorder(nil)
	require.NoError(t, third.Start(dir, "other", false))
	require.NoError(t, third.Close())
}

func TestFileRecorder_RecordBeforeStart(t *testing.T) {
	rec := NewFileRecorder(nil)
	assert.ErrorIs(t, rec.Record(context.Background(), &EpisodeRecord{}), ErrNotStarted)
	assert.NoError(t, rec.Close())
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, saveJSON(path, &Stats{RunID: "run-1", Episodes: 2}))

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Stats
	require.NoError(t, json.Unmarshal(bs, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Episodes)

	err = saveJSON(filepath.Join(t.TempDir(), "missing", "summary.json"), &Stats{})
	assert.Error(t, err)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	require.NoError(t, rec.Start("ignored", "tag", false))
	require.NoError(t, rec.Record(context.Background(), &EpisodeRecord{}))
	assert.Empty(t, rec.RunID())
	assert.NoError(t, rec.Close())
}
