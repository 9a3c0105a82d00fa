package bolt

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/repos/rules"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "rules.db")
}

func sampleFeed() domain.RuleFeed {
	return domain.RuleFeed{
		Whitelist: []domain.RuleSpec{{ID: "WL-001", Pattern: "^what is ", Message: "Simple factual question"}},
		Blacklist: []domain.RuleSpec{
			{ID: "BL-001", Pattern: "ignore (all )?previous instructions", Action: "block"},
			{ID: "BL-002", Pattern: `\bact as dan`},
		},
	}
}

func TestBoltStore_EmptyLoad(t *testing.T) {
	st, err := New(tempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, _, err = st.Load()
	assert.True(t, errors.Is(err, rules.ErrNoSnapshot), "got %v", err)
}

func TestBoltStore_SaveAndLoad(t *testing.T) {
	st, err := New(tempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	at := time.Unix(1_700_000_000, 0)
	require.NoError(t, st.Save(sampleFeed(), at))

	feed, meta, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleFeed(), feed)
	assert.Equal(t, uint64(1), meta.Version)
	assert.True(t, meta.Updated.Equal(at))
	assert.Equal(t, 3, meta.Rules)
}

func TestBoltStore_SaveReplacesAndBumpsVersion(t *testing.T) {
	st, err := New(tempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Save(sampleFeed(), time.Unix(10, 0)))
	smaller := domain.RuleFeed{Blacklist: []domain.RuleSpec{{ID: "ONLY", Pattern: "x"}}}
	require.NoError(t, st.Save(smaller, time.Unix(20, 0)))

	feed, meta, err := st.Load()
	require.NoError(t, err)
	assert.Len(t, feed.Whitelist, 0)
	require.Len(t, feed.Blacklist, 1)
	assert.Equal(t, "ONLY", feed.Blacklist[0].ID)
	assert.Equal(t, uint64(2), meta.Version)
	assert.Equal(t, int64(20), meta.Updated.Unix())
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := tempDB(t)
	st, err := New(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(sampleFeed(), time.Unix(42, 0)))
	require.NoError(t, st.Close())

	st2, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })
	feed, meta, err := st2.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleFeed(), feed)
	assert.Equal(t, uint64(1), meta.Version)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "rules.db"))
	assert.Error(t, err)
}
