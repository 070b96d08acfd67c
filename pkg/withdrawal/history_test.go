package withdrawal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempHistory(t *testing.T) (*History, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	history, err := NewHistory(path)
	require.NoError(t, err)
	return history, path
}

func TestHistoryBeginAssignsUniqueIDs(t *testing.T) {
	history, _ := tempHistory(t)

	first, err := history.Begin(request())
	require.NoError(t, err)
	second, err := history.Begin(request())
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, history.Count())
}

func TestHistorySurvivesReload(t *testing.T) {
	history, path := tempHistory(t)

	record, err := history.Begin(request())
	require.NoError(t, err)
	record.IntentHash = "intent-hash-1"
	record.Stages = []string{"depositing", "querying"}
	require.NoError(t, history.Update(record))

	reloaded, err := NewHistory(path)
	require.NoError(t, err)

	got, err := reloaded.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "intent-hash-1", got.IntentHash)
	assert.Equal(t, []string{"depositing", "querying"}, got.Stages)
	assert.Equal(t, "base", got.Request.DepositChain)
}

func TestHistoryUpdateRejectsUnknownRecord(t *testing.T) {
	history, _ := tempHistory(t)

	err := history.Update(&Record{ID: "missing"})
	assert.Error(t, err)
}

func TestHistoryListNewestFirst(t *testing.T) {
	history, _ := tempHistory(t)

	older, err := history.Begin(request())
	require.NoError(t, err)
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, history.Update(older))

	newer, err := history.Begin(request())
	require.NoError(t, err)

	records := history.List()
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}

func TestHistoryWriteIsAtomic(t *testing.T) {
	history, path := tempHistory(t)

	_, err := history.Begin(request())
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away after save")
}
