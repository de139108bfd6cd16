package lineedit

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// VT100 sequences emitted by the buffer.
const (
	cursorLeft  = "\x1b[D"
	cursorRight = "\x1b[C"
	eraseToEOL  = "\x1b[K"
	clearHome   = "\x1b[2J\x1b[H"
)

// Buffer is a cursor-addressed line.  Every mutation writes the
// minimal terminal output that keeps the remote cursor column equal to
// the display width of the runes left of the logical cursor.
type Buffer struct {
	runes []rune
	pos   int
	out   io.Writer
}

// NewBuffer returns an empty buffer rendering to out.
func NewBuffer(out io.Writer) *Buffer {
	return &Buffer{out: out}
}

// String returns the buffer text.
func (b *Buffer) String() string { return string(b.runes) }

// Len returns the number of runes.
func (b *Buffer) Len() int { return len(b.runes) }

// Pos returns the cursor index in [0, Len].
func (b *Buffer) Pos() int { return b.pos }

// Reset empties the buffer without writing anything.
func (b *Buffer) Reset() {
	b.runes = b.runes[:0]
	b.pos = 0
}

// Insert places r at the cursor and advances it.
func (b *Buffer) Insert(r rune) error {
	b.runes = append(b.runes, 0)
	copy(b.runes[b.pos+1:], b.runes[b.pos:])
	b.runes[b.pos] = r
	b.pos++

	var sb strings.Builder
	sb.WriteRune(r)
	b.retail(&sb)
	return b.emit(sb.String())
}

// DeleteBackward removes the rune left of the cursor.  No-op at 0.
func (b *Buffer) DeleteBackward() error {
	if b.pos == 0 {
		return nil
	}
	w := runewidth.RuneWidth(b.runes[b.pos-1])
	b.runes = append(b.runes[:b.pos-1], b.runes[b.pos:]...)
	b.pos--

	var sb strings.Builder
	sb.WriteString(strings.Repeat(cursorLeft, w))
	sb.WriteString(eraseToEOL)
	b.retail(&sb)
	return b.emit(sb.String())
}

// DeleteForward removes the rune under the cursor.  No-op at the end.
func (b *Buffer) DeleteForward() error {
	if b.pos == len(b.runes) {
		return nil
	}
	b.runes = append(b.runes[:b.pos], b.runes[b.pos+1:]...)

	var sb strings.Builder
	sb.WriteString(eraseToEOL)
	b.retail(&sb)
	return b.emit(sb.String())
}

// Home moves the cursor to the start of the line.
func (b *Buffer) Home() error { return b.moveTo(0) }

// End moves the cursor past the last rune.
func (b *Buffer) End() error { return b.moveTo(len(b.runes)) }

// Left moves the cursor n runes left, stopping at 0.
func (b *Buffer) Left(n int) error { return b.moveTo(max(b.pos-n, 0)) }

// Right moves the cursor n runes right, stopping at the end.
func (b *Buffer) Right(n int) error { return b.moveTo(min(b.pos+n, len(b.runes))) }

// WordForward moves just past the next space, or to the end.
func (b *Buffer) WordForward() error {
	i := b.pos
	for i < len(b.runes) {
		i++
		if b.runes[i-1] == ' ' {
			break
		}
	}
	return b.moveTo(i)
}

// WordBackward moves to the start of the previous word, or to 0.
func (b *Buffer) WordBackward() error {
	i := b.pos
	for i > 0 && b.runes[i-1] == ' ' {
		i--
	}
	for i > 0 && b.runes[i-1] != ' ' {
		i--
	}
	return b.moveTo(i)
}

// Replace swaps the whole line for s and leaves the cursor at the end.
func (b *Buffer) Replace(s string) error {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(cursorLeft, b.width(0, b.pos)))
	sb.WriteString(eraseToEOL)
	sb.WriteString(s)

	b.runes = append(b.runes[:0], []rune(s)...)
	b.pos = len(b.runes)
	return b.emit(sb.String())
}

// Redraw clears the screen and reprints prompt and line with the cursor
// where it was.  Text and cursor are unchanged.
func (b *Buffer) Redraw(prompt string) error {
	var sb strings.Builder
	sb.WriteString(clearHome)
	sb.WriteString(prompt)
	sb.WriteString(string(b.runes))
	sb.WriteString(strings.Repeat(cursorLeft, b.width(b.pos, len(b.runes))))
	return b.emit(sb.String())
}

// retail rewrites everything right of the cursor and walks back.
func (b *Buffer) retail(sb *strings.Builder) {
	if b.pos == len(b.runes) {
		return
	}
	tail := b.runes[b.pos:]
	if !strings.HasSuffix(sb.String(), eraseToEOL) {
		sb.WriteString(eraseToEOL)
	}
	sb.WriteString(string(tail))
	sb.WriteString(strings.Repeat(cursorLeft, b.width(b.pos, len(b.runes))))
}

func (b *Buffer) moveTo(i int) error {
	var s string
	switch {
	case i < b.pos:
		s = strings.Repeat(cursorLeft, b.width(i, b.pos))
	case i > b.pos:
		s = strings.Repeat(cursorRight, b.width(b.pos, i))
	}
	b.pos = i
	return b.emit(s)
}

func (b *Buffer) width(from, to int) int {
	w := 0
	for _, r := range b.runes[from:to] {
		w += runewidth.RuneWidth(r)
	}
	return w
}

func (b *Buffer) emit(s string) error {
	if s == "" {
		return nil
	}
	_, err := io.WriteString(b.out, s)
	return err
}
