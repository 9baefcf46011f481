package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-battle/internal/moves"
)

func TestParsePauses(t *testing.T) {
	spans, err := parsePauses([]string{"200ms:1s", "2s:50ms"})
	require.NoError(t, err)
	assert.Equal(t, []moves.PauseSpan{
		{At: 200 * time.Millisecond, For: time.Second},
		{At: 2 * time.Second, For: 50 * time.Millisecond},
	}, spans)

	for _, bad := range []string{"200ms", "x:1s", "1s:y"} {
		_, err := parsePauses([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParsePausesEmpty(t *testing.T) {
	spans, err := parsePauses(nil)
	require.NoError(t, err)
	assert.Empty(t, spans)
}
