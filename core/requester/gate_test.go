package requester

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/adbridge/core/dto"
)

func TestGate(t *testing.T) {
	g := NewGate(700 * time.Millisecond)
	t0 := time.Unix(1000, 0)

	require.True(t, g.CanSend(dto.CommandLoad, t0))
	g.MarkSent(dto.CommandLoad, t0)

	require.False(t, g.CanSend(dto.CommandLoad, t0.Add(699*time.Millisecond)))
	require.True(t, g.CanSend(dto.CommandLoad, t0.Add(700*time.Millisecond)))

	// commands are throttled independently
	require.True(t, g.CanSend(dto.CommandShow, t0.Add(time.Millisecond)))
}

func TestGate_CanSendDoesNotMark(t *testing.T) {
	g := NewGate(time.Second)
	t0 := time.Unix(1000, 0)

	require.True(t, g.CanSend(dto.CommandLoad, t0))
	require.True(t, g.CanSend(dto.CommandLoad, t0))
}

func TestGate_ZeroAndNegativeWindow(t *testing.T) {
	t0 := time.Unix(1000, 0)

	for _, window := range []time.Duration{0, -time.Second} {
		g := NewGate(window)
		g.MarkSent(dto.CommandShow, t0)
		require.True(t, g.CanSend(dto.CommandShow, t0))
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	require.Equal(t, dto.StatusUnknown, c.Status(dto.CommandLoad))
	require.Equal(t, -1, c.Status(dto.CommandLoad).Value())

	c.Record(dto.CommandLoad, true)
	require.Equal(t, dto.StatusSuccess, c.Status(dto.CommandLoad))
	require.Equal(t, 1, c.Status(dto.CommandLoad).Value())

	c.Record(dto.CommandLoad, false)
	require.Equal(t, dto.StatusFailure, c.Status(dto.CommandLoad))
	require.Equal(t, 0, c.Status(dto.CommandLoad).Value())

	require.Equal(t, dto.StatusUnknown, c.Status(dto.CommandShow))
}
