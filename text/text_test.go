// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package text_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/probescript/text"
)

func TestCharacterASCII(t *testing.T) {
	tx := text.FromString("abc")
	c := text.Character(tx)
	require.Equal(t, rune('a'), c.Codepoint)
	require.Equal(t, 1, c.Units)
}

func TestCharacterMultiByte(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  rune
		units int
	}{
		{"two-byte", "é", 0xe9, 2},
		{"three-byte", "中", 0x4e2d, 3},
		{"four-byte astral", "\U0001F600", 0x1F600, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := text.Character(text.FromString(c.input))
			require.Equal(t, c.want, got.Codepoint)
			require.Equal(t, c.units, got.Units)
		})
	}
}

func TestNextCharacterAdvances(t *testing.T) {
	tx := text.FromString("ab")
	first := text.NextCharacter(&tx)
	require.Equal(t, rune('a'), first.Codepoint)
	second := text.NextCharacter(&tx)
	require.Equal(t, rune('b'), second.Codepoint)
	require.Equal(t, 0, tx.Len())
}

func TestPrevCharacter(t *testing.T) {
	tx := text.FromString("aé")
	last := text.PrevCharacter(tx)
	require.Equal(t, rune(0xe9), last.Codepoint)
}

func TestJoinSpansBothTexts(t *testing.T) {
	full := text.FromString("var x = 1;")
	a := full.Advance(0)
	a.Length = 3
	b := full.Advance(8)
	b.Length = 1
	joined := text.Join(a, b)
	require.Equal(t, "var x = 1", joined.String())
}

func TestSurrogatePair(t *testing.T) {
	c := text.Character(text.FromString("\U0001F600"))
	high, low := c.SurrogatePair()
	require.Equal(t, uint16(0xD83D), high)
	require.Equal(t, uint16(0xDE00), low)
	require.Equal(t, 2, c.Unit16Count())
}

func TestCharsAppend(t *testing.T) {
	b := text.BeginAppend()
	b.AppendString("hello, ")
	b.AppendCodepoint('世')
	b.AppendString("!")
	c := b.EndAppend()
	require.False(t, c.Appending(), "Appending() still true after EndAppend")
	require.Equal(t, "hello, 世!", c.Text().String())
}
