package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	opts := options{year: 2020, accidents: 50, events: 10, seed: 7}

	a1, e1 := generate(opts)
	a2, e2 := generate(opts)
	assert.Equal(t, a1, a2)
	assert.Equal(t, e1, e2)

	opts.seed = 8
	a3, _ := generate(opts)
	assert.NotEqual(t, a1, a3)
}

func TestGenerate_RecordsAreValid(t *testing.T) {
	accidents, events := generate(options{year: 2021, accidents: 200, events: 40, seed: 1})
	require.Len(t, accidents, 200)
	require.Len(t, events, 40)

	for _, ev := range events {
		start, err := ev.StartTime.Resolve()
		require.NoError(t, err)
		end, err := ev.EndTime.Resolve()
		require.NoError(t, err)
		assert.False(t, end.Before(start), ev.ID)
		assert.Equal(t, 2021, start.Year())
		assert.True(t, ev.Location.Valid())
	}
	for _, a := range accidents {
		at, err := a.StartTime.Resolve()
		require.NoError(t, err)
		assert.Equal(t, 2021, at.Year())
		assert.True(t, a.Location.Valid())
		assert.NotEmpty(t, a.Attributes)
	}
}
