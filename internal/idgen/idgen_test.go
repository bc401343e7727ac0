package idgen

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var confirmationPattern = regexp.MustCompile(`^AA\d{8}\d{4}$`)

func TestSeeded_IsDeterministic(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	a := NewSeeded(42)
	b := NewSeeded(42)

	for i := 0; i < 5; i++ {
		assert.Equal(t, a.NewID(), b.NewID())
		assert.Equal(t, a.ConfirmationNumber(now), b.ConfirmationNumber(now))
	}
}

func TestSeeded_DifferentSeedsDiverge(t *testing.T) {
	assert.NotEqual(t, NewSeeded(1).NewID(), NewSeeded(2).NewID())
}

func TestNewID_IsUUID(t *testing.T) {
	for _, g := range []Generator{New(), NewSeeded(7)} {
		_, err := uuid.Parse(g.NewID())
		require.NoError(t, err)
	}
}

func TestConfirmationNumber_Format(t *testing.T) {
	now := time.Date(2026, 1, 2, 23, 59, 0, 0, time.UTC)

	for _, g := range []Generator{New(), NewSeeded(99)} {
		for i := 0; i < 50; i++ {
			cn := g.ConfirmationNumber(now)
			assert.Regexp(t, confirmationPattern, cn)
			assert.Equal(t, "AA20260102", cn[:10])
		}
	}
}

func TestFormatConfirmation_SuffixRange(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "AA202603041000", formatConfirmation(now, 0))
	assert.Equal(t, "AA202603049999", formatConfirmation(now, 8999))
}

func TestSeeded_ConcurrentUse(t *testing.T) {
	g := NewSeeded(3)

	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- g.NewID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}
