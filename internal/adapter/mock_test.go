package adapter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_PlayEmitsStateChange(t *testing.T) {
	m := NewMock()

	require.NoError(t, m.Play())
	assert.Equal(t, Playing, m.State())
	assert.Equal(t, Event{State: Playing}, <-m.Events())

	require.NoError(t, m.Play())
	assert.Empty(t, m.Events(), "no event without a state change")
	assert.Equal(t, 2, m.PlayCalls())
}

func TestMock_DropCommands(t *testing.T) {
	m := NewMock()
	m.DropCommands(2)

	require.NoError(t, m.Play())
	require.NoError(t, m.Play())
	assert.Equal(t, Unstarted, m.State())

	require.NoError(t, m.Play())
	assert.Equal(t, Playing, m.State())
	assert.Equal(t, 3, m.PlayCalls())
}

func TestMock_DurationAfter(t *testing.T) {
	m := NewMock()
	m.SetDuration(time.Minute)
	m.SetDurationAfter(2)

	for range 2 {
		d, err := m.Duration()
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := m.Duration()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
	assert.Equal(t, 3, m.DurationCalls())
}

func TestMock_Seek(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.SeekTo(30*time.Second, true))
	assert.Equal(t, 30*time.Second, m.Position())

	seekErr := errors.New("seek failed")
	m.SetSeekError(seekErr)
	assert.ErrorIs(t, m.SeekTo(40*time.Second, false), seekErr)
	assert.Equal(t, 30*time.Second, m.Position())

	assert.Equal(t, []SeekCall{
		{Position: 30 * time.Second, AllowSeekAhead: true},
		{Position: 40 * time.Second, AllowSeekAhead: false},
	}, m.SeekCalls())
}

func TestMock_Destroy(t *testing.T) {
	m := NewMock()
	m.Destroy()
	m.Destroy()

	select {
	case <-m.Done():
	default:
		t.Fatal("Done not closed")
	}
	_, err := m.CurrentTime()
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.ErrorIs(t, m.Play(), ErrDestroyed)
	assert.ErrorIs(t, m.SeekTo(0, true), ErrDestroyed)
}

func TestMock_EmitErrorKeepsState(t *testing.T) {
	m := NewMock()
	m.SetState(Playing)
	m.Emit(Event{State: Errored, Code: CodeNotFound})

	assert.Equal(t, Playing, m.State())
	assert.Equal(t, Event{State: Errored, Code: CodeNotFound}, <-m.Events())
}
