package lineedit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typed(t *testing.T, b *Buffer, s string) {
	t.Helper()
	for _, r := range s {
		require.NoError(t, b.Insert(r))
	}
}

func TestBuffer_InsertOnly(t *testing.T) {
	for _, s := range []string{"", "a", "hello world", "héllo 世界", strings.Repeat("x", 500)} {
		b := NewBuffer(&bytes.Buffer{})
		typed(t, b, s)
		n := len([]rune(s))
		assert.Equal(t, n, b.Len())
		assert.Equal(t, n, b.Pos())
		assert.Equal(t, s, b.String())
	}
}

func TestBuffer_DeleteAtEdgesIsNoop(t *testing.T) {
	var out bytes.Buffer
	b := NewBuffer(&out)
	typed(t, b, "abc")

	out.Reset()
	require.NoError(t, b.DeleteForward())
	assert.Equal(t, "abc", b.String())
	assert.Equal(t, 3, b.Pos())
	assert.Empty(t, out.String())

	require.NoError(t, b.Home())
	out.Reset()
	require.NoError(t, b.DeleteBackward())
	assert.Equal(t, "abc", b.String())
	assert.Equal(t, 0, b.Pos())
	assert.Empty(t, out.String())
}

func TestBuffer_Rendering(t *testing.T) {
	var out bytes.Buffer
	b := NewBuffer(&out)
	typed(t, b, "acd")
	assert.Equal(t, "acd", out.String())

	require.NoError(t, b.Left(2))
	out.Reset()
	require.NoError(t, b.Insert('b'))
	assert.Equal(t, "b\x1b[Kcd\x1b[D\x1b[D", out.String())
	assert.Equal(t, "abcd", b.String())
	assert.Equal(t, 2, b.Pos())

	out.Reset()
	require.NoError(t, b.DeleteBackward())
	assert.Equal(t, "\x1b[D\x1b[Kcd\x1b[D\x1b[D", out.String())
	assert.Equal(t, "acd", b.String())
	assert.Equal(t, 1, b.Pos())

	out.Reset()
	require.NoError(t, b.DeleteForward())
	assert.Equal(t, "\x1b[Kd\x1b[D", out.String())
	assert.Equal(t, "ad", b.String())

	out.Reset()
	require.NoError(t, b.End())
	assert.Equal(t, "\x1b[C", out.String())

	out.Reset()
	require.NoError(t, b.Home())
	assert.Equal(t, "\x1b[D\x1b[D", out.String())
}

func TestBuffer_WideRunes(t *testing.T) {
	var out bytes.Buffer
	b := NewBuffer(&out)
	typed(t, b, "世界")

	out.Reset()
	require.NoError(t, b.Left(1))
	assert.Equal(t, "\x1b[D\x1b[D", out.String(), "a wide rune spans two columns")

	out.Reset()
	require.NoError(t, b.DeleteBackward())
	assert.Equal(t, "\x1b[D\x1b[D\x1b[K界\x1b[D\x1b[D", out.String())
	assert.Equal(t, "界", b.String())
}

func TestBuffer_ClampedMotion(t *testing.T) {
	b := NewBuffer(&bytes.Buffer{})
	typed(t, b, "abc")

	require.NoError(t, b.Right(10))
	assert.Equal(t, 3, b.Pos())
	require.NoError(t, b.Left(10))
	assert.Equal(t, 0, b.Pos())
}

func TestBuffer_WordMotion(t *testing.T) {
	b := NewBuffer(&bytes.Buffer{})
	typed(t, b, "one two  three")
	require.NoError(t, b.Home())

	var stops []int
	for i := 0; i < 4; i++ {
		require.NoError(t, b.WordForward())
		stops = append(stops, b.Pos())
	}
	assert.Equal(t, []int{4, 8, 9, 14}, stops)

	stops = stops[:0]
	for i := 0; i < 4; i++ {
		require.NoError(t, b.WordBackward())
		stops = append(stops, b.Pos())
	}
	assert.Equal(t, []int{9, 4, 0, 0}, stops)
}

func TestBuffer_RedrawKeepsState(t *testing.T) {
	var out bytes.Buffer
	b := NewBuffer(&out)
	typed(t, b, "status")
	require.NoError(t, b.Left(2))

	out.Reset()
	require.NoError(t, b.Redraw("> "))

	assert.Equal(t, "\x1b[2J\x1b[H> status\x1b[D\x1b[D", out.String())
	assert.Equal(t, "status", b.String())
	assert.Equal(t, 4, b.Pos())
}

func TestBuffer_Replace(t *testing.T) {
	var out bytes.Buffer
	b := NewBuffer(&out)
	typed(t, b, "abc")
	require.NoError(t, b.Left(1))

	out.Reset()
	require.NoError(t, b.Replace("help ping"))
	assert.Equal(t, "\x1b[D\x1b[D\x1b[K"+"help ping", out.String())
	assert.Equal(t, "help ping", b.String())
	assert.Equal(t, 9, b.Pos())
}
