package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutreachStatusRank(t *testing.T) {
	ordered := []OutreachStatus{
		OutreachStatusNotContacted,
		OutreachStatusVerified,
		OutreachStatusPitched,
		OutreachStatusResponded,
		OutreachStatusSignedUp,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}

	// side exits rank above the whole forward chain
	for _, s := range ordered {
		assert.Greater(t, OutreachStatusWrongNumber.Rank(), s.Rank())
		assert.Greater(t, OutreachStatusOptedOut.Rank(), s.Rank())
	}

	assert.Equal(t, -1, OutreachStatus("bogus").Rank())
	assert.False(t, OutreachStatus("bogus").Valid())
}

func TestOutreachStatusTerminal(t *testing.T) {
	assert.True(t, OutreachStatusSignedUp.Terminal())
	assert.True(t, OutreachStatusWrongNumber.Terminal())
	assert.True(t, OutreachStatusOptedOut.Terminal())
	assert.False(t, OutreachStatusNotContacted.Terminal())
	assert.False(t, OutreachStatusResponded.Terminal())
}

func TestOutreachStatusMeta(t *testing.T) {
	for _, s := range []OutreachStatus{
		OutreachStatusNotContacted,
		OutreachStatusVerified,
		OutreachStatusPitched,
		OutreachStatusResponded,
		OutreachStatusSignedUp,
		OutreachStatusWrongNumber,
		OutreachStatusOptedOut,
	} {
		meta := s.Meta()
		assert.NotEmpty(t, meta.Label, "status %s", s)
		assert.NotEmpty(t, meta.Color, "status %s", s)
		assert.NotEqual(t, "Unknown", meta.Label, "status %s", s)
	}

	assert.Equal(t, "Unknown", OutreachStatus("bogus").Meta().Label)
}
