// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeExtractExactType(t *testing.T) {
	env := NewEnvelope(tradeEvent{Symbol: "AAPL", Price: 150.25})

	got, ok := Extract[tradeEvent](env)
	require.True(t, ok)
	require.Equal(t, "AAPL", got.Symbol)
	require.Equal(t, 150.25, got.Price)
}

func TestEnvelopeExtractWrongTypeFails(t *testing.T) {
	env := NewEnvelope(tradeEvent{Symbol: "AAPL"})

	_, ok := Extract[riskResult](env)
	require.False(t, ok)
}

func TestEnvelopeDistinguishesValueAndPointer(t *testing.T) {
	env := NewEnvelope(&tradeEvent{Symbol: "AAPL"})

	_, ok := Extract[tradeEvent](env)
	require.False(t, ok)

	ptr, ok := Extract[*tradeEvent](env)
	require.True(t, ok)
	require.Equal(t, "AAPL", ptr.Symbol)
}

func TestEnvelopeDistinguishesNumericKinds(t *testing.T) {
	env := NewEnvelope(int32(7))

	_, ok := Extract[int64](env)
	require.False(t, ok)
	_, ok = Extract[int32](env)
	require.True(t, ok)
}

func TestEnvelopeTypeIsStable(t *testing.T) {
	a := NewEnvelope(tradeEvent{})
	b := NewEnvelope(tradeEvent{Symbol: "MSFT"})
	require.Equal(t, a.Type(), b.Type())
	require.NotEqual(t, a.Type(), NewEnvelope(riskResult{}).Type())
}

func TestExtractNilEnvelope(t *testing.T) {
	_, ok := Extract[tradeEvent](nil)
	require.False(t, ok)
}
