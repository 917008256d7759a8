package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)

func TestDateParser_LongForm(t *testing.T) {
	p := NewDateParser()

	got, found, err := p.ParseDate(context.Background(), "3rd Jan 2026", now)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestDateParser_NumericIsDayFirst(t *testing.T) {
	p := NewDateParser()

	got, found, err := p.ParseDate(context.Background(), "03/01/2026", now)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 3, got.Day())
}

func TestDateParser_EmbeddedNumericIsDayFirst(t *testing.T) {
	p := NewDateParser()

	tests := []struct {
		text string
		want time.Time
	}{
		{"03/04/2026", time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"I was enrolled on 03/04/2026", time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"enrolled 10/11/2026", time.Date(2026, time.November, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, found, err := p.ParseDate(context.Background(), tt.text, now)

			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateParser_NoDate(t *testing.T) {
	p := NewDateParser()

	_, found, _ := p.ParseDate(context.Background(), "hello", now)

	assert.False(t, found)
}

func TestDateParser_EmptyText(t *testing.T) {
	p := NewDateParser()

	_, found, err := p.ParseDate(context.Background(), "   ", now)

	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDateParser_CancelledContext(t *testing.T) {
	p := NewDateParser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found, err := p.ParseDate(ctx, "3rd Jan 2026", now)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
}

func TestHasDigit(t *testing.T) {
	assert.True(t, hasDigit("3rd Jan"))
	assert.False(t, hasDigit("may"))
}
