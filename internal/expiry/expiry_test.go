package expiry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisllontop/keyv-go/internal/expiry"
)

var frozen = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func frozenPolicy(defaultTTL time.Duration) expiry.Policy {
	return expiry.Policy{
		DefaultTTL: defaultTTL,
		Now:        func() time.Time { return frozen },
	}
}

func TestDeadlineFromExplicitTTL(t *testing.T) {
	deadline := frozenPolicy(0).Deadline(time.Minute)
	require.NotNil(t, deadline)
	assert.Equal(t, frozen.Add(time.Minute), *deadline)
}

func TestDeadlineFallsBackToDefault(t *testing.T) {
	deadline := frozenPolicy(time.Hour).Deadline(0)
	require.NotNil(t, deadline)
	assert.Equal(t, frozen.Add(time.Hour), *deadline)
}

func TestDeadlinePrefersExplicitOverDefault(t *testing.T) {
	deadline := frozenPolicy(time.Hour).Deadline(time.Minute)
	require.NotNil(t, deadline)
	assert.Equal(t, frozen.Add(time.Minute), *deadline)
}

func TestDeadlineAbsentWithoutTTL(t *testing.T) {
	assert.Nil(t, frozenPolicy(0).Deadline(0))
}

func TestNilDeadlineNeverExpires(t *testing.T) {
	assert.False(t, frozenPolicy(0).Expired(nil))
}

func TestFutureDeadlineIsLive(t *testing.T) {
	future := frozen.Add(time.Second)
	assert.False(t, frozenPolicy(0).Expired(&future))
}

func TestPastDeadlineIsDead(t *testing.T) {
	past := frozen.Add(-time.Second)
	assert.True(t, frozenPolicy(0).Expired(&past))
}

func TestDeadlineAtNowIsDead(t *testing.T) {
	now := frozen
	assert.True(t, frozenPolicy(0).Expired(&now))
}
