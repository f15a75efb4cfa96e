package timecache

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(unix int64) time.Time {
	return time.Unix(unix, 0)
}

func TestRangeCovers(t *testing.T) {
	t.Parallel()
	r := Range{Start: ts(100), End: ts(200)}
	assert.True(t, r.Covers(ts(100), ts(200)))
	assert.True(t, r.Covers(ts(150), ts(180)))
	assert.False(t, r.Covers(ts(50), ts(150)), "query starting before cached range")
	assert.False(t, r.Covers(ts(150), ts(250)), "query ending after cached range")
}

func TestCheckAndUpdate(t *testing.T) {
	t.Parallel()
	s := New[[]int]("trade_history", nil)

	_, ok := s.Check("all", ts(0), ts(100))
	assert.False(t, ok, "empty store should miss")

	require.NoError(t, s.Update("all", ts(0), ts(100), []int{1, 2, 3}))

	got, ok := s.Check("all", ts(10), ts(90))
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, got)

	_, ok = s.Check("all", ts(10), ts(150))
	assert.False(t, ok, "partial coverage must be a miss")

	_, ok = s.Check("other", ts(10), ts(90))
	assert.False(t, ok, "different qualifier must be a miss")

	// Update overwrites, never merges
	require.NoError(t, s.Update("all", ts(50), ts(80), []int{9}))
	_, ok = s.Check("all", ts(10), ts(90))
	assert.False(t, ok, "overwritten range no longer covers the old window")
}

type fakeEntry struct {
	r   Range
	raw []byte
}

type fakeBackend struct {
	entries map[string]fakeEntry
	saveErr error
	saves   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: make(map[string]fakeEntry)}
}

func (f *fakeBackend) Load(kind, qualifier string) ([]byte, Range, bool, error) {
	e, ok := f.entries[kind+"/"+qualifier]
	return e.raw, e.r, ok, nil
}

func (f *fakeBackend) Save(kind, qualifier string, r Range, payload []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.entries[kind+"/"+qualifier] = fakeEntry{r, payload}
	return nil
}

func TestBackendWriteThroughAndPromotion(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()

	s := New[[]string]("loan_history", backend)
	require.NoError(t, s.Update("", ts(0), ts(500), []string{"a", "b"}))
	assert.Equal(t, 1, backend.saves)

	// A fresh store sharing the backend sees the persisted entry
	fresh := New[[]string]("loan_history", backend)
	got, ok := fresh.Check("", ts(100), ts(400))
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	// Promotion caches the backend hit in memory
	_, ok = fresh.entries[""]
	assert.True(t, ok)
}

func TestBackendMisses(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()
	raw, err := json.Marshal([]string{"a"})
	require.NoError(t, err)
	backend.entries["loan_history/"] = fakeEntry{Range{Start: ts(100), End: ts(200)}, raw}

	s := New[[]string]("loan_history", backend)
	_, ok := s.Check("", ts(0), ts(150))
	assert.False(t, ok, "persisted entry not covering the window must miss")

	s2 := New[[]int]("loan_history", backend)
	_, ok = s2.Check("", ts(100), ts(200))
	assert.False(t, ok, "undecodable persisted payload must miss, not fail")
}

func TestUpdateSaveError(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()
	backend.saveErr = errors.New("disk full")

	s := New[[]int]("deposits_withdrawals", backend)
	err := s.Update("", ts(0), ts(10), []int{1})
	assert.ErrorContains(t, err, "disk full")

	// In-memory entry is still usable
	got, ok := s.Check("", ts(0), ts(10))
	assert.True(t, ok)
	assert.Equal(t, []int{1}, got)
}
