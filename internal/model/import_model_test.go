package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"ten digits", "2055551234", "+12055551234", true},
		{"formatted", "(205) 555-1234", "+12055551234", true},
		{"eleven with leading one", "12055551234", "+12055551234", true},
		{"already e164", "+1 205 555 1234", "+12055551234", true},
		{"international", "442071234567", "+442071234567", true},
		{"fifteen digits", "123456789012345", "+123456789012345", true},
		{"too short", "555123", "", false},
		{"too long", "1234567890123456", "", false},
		{"letters only", "not a phone", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundYear(t *testing.T) {
	year := func(y int) *int { return &y }

	assert.Nil(t, BoundYear(nil))
	assert.Nil(t, BoundYear(year(1900)))
	assert.Nil(t, BoundYear(year(2100)))
	assert.Nil(t, BoundYear(year(19)))

	got := BoundYear(year(1998))
	if assert.NotNil(t, got) {
		assert.Equal(t, 1998, *got)
	}
}
