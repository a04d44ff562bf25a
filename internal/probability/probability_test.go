package probability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Range(t *testing.T) {
	for _, v := range []float64{0.0, 0.5, 1.0} {
		p, err := New(v)
		require.NoError(t, err)
		assert.Equal(t, v, p.Value())
	}
}

func TestNew_OutOfRange(t *testing.T) {
	for _, v := range []float64{-0.0001, 1.0001, -1, 2} {
		_, err := New(v)
		assert.ErrorIs(t, err, ErrOutOfRange)
	}
}

func TestNew_NotANumber(t *testing.T) {
	_, err := New(math.NaN())
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = New(math.Inf(1))
	assert.ErrorIs(t, err, ErrNotANumber)
}

func TestParse(t *testing.T) {
	p, err := Parse("0.3")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, p.Value(), 1e-9)

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	low := MustNew(0.1)
	high := MustNew(0.9)
	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(low))
}

func TestTextRoundTrip(t *testing.T) {
	p := MustNew(0.25)
	text, err := p.MarshalText()
	require.NoError(t, err)

	var roundTripped Probability
	require.NoError(t, roundTripped.UnmarshalText(text))
	assert.Equal(t, p, roundTripped)
}

func TestZeroIsDefault(t *testing.T) {
	var p Probability
	assert.Equal(t, Zero, p)
	assert.Equal(t, 0.0, p.Value())
}
