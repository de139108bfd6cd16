// Package lineedit reconstructs readline-style editing from a raw,
// unbuffered byte stream: a decoder that turns bytes into edit actions,
// a cursor-addressed line buffer that keeps the remote terminal in
// step, and a bounded history with a per-line draft overlay.
package lineedit

import (
	"fmt"
	"unicode/utf8"

	conerr "sshconsole/internal/errors"
)

// Kind identifies an edit action or control signal.
type Kind int

const (
	Insert Kind = iota + 1
	DeleteBackward
	DeleteForward
	MoveHome
	MoveEnd
	Redraw
	WordForward
	WordBackward
	HistoryUp
	HistoryDown
	CursorRight
	CursorLeft
	Submit
	ForceQuit
	EndOfText // Ctrl-D; quits on an empty line, ignored otherwise
)

var kindNames = [...]string{
	Insert:         "insert",
	DeleteBackward: "delete-backward",
	DeleteForward:  "delete-forward",
	MoveHome:       "home",
	MoveEnd:        "end",
	Redraw:         "redraw",
	WordForward:    "word-forward",
	WordBackward:   "word-backward",
	HistoryUp:      "history-up",
	HistoryDown:    "history-down",
	CursorRight:    "cursor-right",
	CursorLeft:     "cursor-left",
	Submit:         "submit",
	ForceQuit:      "force-quit",
	EndOfText:      "end-of-text",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Action is one decoded edit.  Rune is set for Insert; Count is the
// repeat count of arrow sequences and 1 otherwise.
type Action struct {
	Kind  Kind
	Rune  rune
	Count int
}

type decodeState int

const (
	stateNormal decodeState = iota
	stateEscape
	stateBracket
)

// maxCount bounds the repeat count of a CSI sequence.
const maxCount = 9999

// Decoder is a byte-at-a-time state machine.  The zero value is ready
// to use.
type Decoder struct {
	state decodeState

	// CSI parameters
	count  int
	digits bool
	extra  bool // past the first parameter

	// partial UTF-8 sequence
	utf  [utf8.UTFMax]byte
	have int
	need int
}

// Feed consumes b.  ok is false when b only advanced internal state.
// A malformed UTF-8 sequence returns an error wrapping ErrDecode.
func (d *Decoder) Feed(b byte) (act Action, ok bool, err error) {
	if d.need > 0 {
		return d.continueRune(b)
	}

	switch d.state {
	case stateEscape:
		return d.feedEscape(b)
	case stateBracket:
		return d.feedBracket(b)
	}

	switch {
	case b == 0x0d || b == 0x1a:
		return Action{Kind: Submit, Count: 1}, true, nil
	case b == 0x03:
		return Action{Kind: ForceQuit, Count: 1}, true, nil
	case b == 0x04:
		return Action{Kind: EndOfText, Count: 1}, true, nil
	case b == 0x7f:
		return Action{Kind: DeleteBackward, Count: 1}, true, nil
	case b == 0x7e:
		return Action{Kind: DeleteForward, Count: 1}, true, nil
	case b == 0x01:
		return Action{Kind: MoveHome, Count: 1}, true, nil
	case b == 0x05:
		return Action{Kind: MoveEnd, Count: 1}, true, nil
	case b == 0x0c:
		return Action{Kind: Redraw, Count: 1}, true, nil
	case b == 0x1b:
		d.state = stateEscape
		return Action{}, false, nil
	case b < 0x20:
		return Action{}, false, nil
	case b < utf8.RuneSelf:
		return Action{Kind: Insert, Rune: rune(b), Count: 1}, true, nil
	}
	return d.startRune(b)
}

func (d *Decoder) feedEscape(b byte) (Action, bool, error) {
	d.state = stateNormal
	switch b {
	case '[':
		d.state = stateBracket
		d.count, d.digits, d.extra = 0, false, false
		return Action{}, false, nil
	case 'f':
		return Action{Kind: WordForward, Count: 1}, true, nil
	case 'b':
		return Action{Kind: WordBackward, Count: 1}, true, nil
	}
	if b >= utf8.RuneSelf {
		return d.Feed(b)
	}
	return Action{}, false, nil
}

func (d *Decoder) feedBracket(b byte) (Action, bool, error) {
	switch {
	case b >= '0' && b <= '9':
		if !d.extra && d.count < maxCount {
			d.count = d.count*10 + int(b-'0')
			d.digits = true
		}
		return Action{}, false, nil
	case b >= 0x20 && b <= 0x3f:
		// intermediate and separator bytes; only the first parameter counts
		d.extra = true
		return Action{}, false, nil
	}

	d.state = stateNormal
	if b < 0x40 || b > 0x7e {
		return Action{}, false, nil
	}

	count := d.count
	if !d.digits || count < 1 {
		count = 1
	}
	switch b {
	case 'A':
		return Action{Kind: HistoryUp, Count: count}, true, nil
	case 'B':
		return Action{Kind: HistoryDown, Count: count}, true, nil
	case 'C':
		return Action{Kind: CursorRight, Count: count}, true, nil
	case 'D':
		return Action{Kind: CursorLeft, Count: count}, true, nil
	case 'H':
		return Action{Kind: MoveHome, Count: 1}, true, nil
	case 'F':
		return Action{Kind: MoveEnd, Count: 1}, true, nil
	case '~':
		if d.count == 3 {
			return Action{Kind: DeleteForward, Count: 1}, true, nil
		}
	}
	return Action{}, false, nil
}

func (d *Decoder) startRune(b byte) (Action, bool, error) {
	switch {
	case b >= 0xc2 && b <= 0xdf:
		d.need = 2
	case b >= 0xe0 && b <= 0xef:
		d.need = 3
	case b >= 0xf0 && b <= 0xf4:
		d.need = 4
	default:
		return Action{}, false, fmt.Errorf("%w: unexpected byte 0x%02x", conerr.ErrDecode, b)
	}
	d.utf[0] = b
	d.have = 1
	return Action{}, false, nil
}

func (d *Decoder) continueRune(b byte) (Action, bool, error) {
	if b&0xc0 != 0x80 {
		d.have, d.need = 0, 0
		return Action{}, false, fmt.Errorf("%w: truncated sequence before 0x%02x", conerr.ErrDecode, b)
	}
	d.utf[d.have] = b
	d.have++
	if d.have < d.need {
		return Action{}, false, nil
	}

	seq := d.utf[:d.have]
	d.have, d.need = 0, 0
	r, size := utf8.DecodeRune(seq)
	if r == utf8.RuneError && size <= 1 {
		return Action{}, false, fmt.Errorf("%w: % x", conerr.ErrDecode, seq)
	}
	return Action{Kind: Insert, Rune: r, Count: 1}, true, nil
}
