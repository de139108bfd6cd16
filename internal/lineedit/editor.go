package lineedit

import (
	"io"
	"strings"
)

// Signal tells the caller how ReadLine ended.
type Signal int

const (
	// SignalSubmit means a line was entered (possibly empty).
	SignalSubmit Signal = iota + 1
	// SignalForceQuit means Ctrl-C, or Ctrl-D on an empty line.
	SignalForceQuit
)

// Editor runs the decoder against a byte source and applies the
// resulting actions to a Buffer and a Drafts overlay.
type Editor struct {
	in      io.ByteReader
	out     io.Writer
	prompt  string
	history *History

	dec    Decoder
	buf    *Buffer
	drafts *Drafts
}

// NewEditor returns an editor reading from in and echoing to out.
func NewEditor(in io.ByteReader, out io.Writer, history *History, prompt string) *Editor {
	return &Editor{
		in:      in,
		out:     out,
		prompt:  prompt,
		history: history,
		buf:     NewBuffer(out),
	}
}

// Buffer exposes the line being edited.
func (e *Editor) Buffer() *Buffer { return e.buf }

// Drafts exposes the overlay of the line being edited.  It is nil
// before the first Begin.
func (e *Editor) Drafts() *Drafts { return e.drafts }

// Begin writes the prompt and starts a fresh line with an overlay built
// from the current history.
func (e *Editor) Begin() error {
	e.buf.Reset()
	e.drafts = NewDrafts(e.history.Entries())
	_, err := io.WriteString(e.out, e.prompt)
	return err
}

// ReadLine edits until a line is submitted or the user force-quits.
// A submitted line is returned trimmed; non-empty lines are appended
// to the history.  Read errors and decode failures are returned as is.
func (e *Editor) ReadLine() (string, Signal, error) {
	if e.drafts == nil {
		e.drafts = NewDrafts(e.history.Entries())
	}
	for {
		c, err := e.in.ReadByte()
		if err != nil {
			return "", 0, err
		}
		act, ok, err := e.dec.Feed(c)
		if err != nil {
			return "", 0, err
		}
		if !ok {
			continue
		}

		switch act.Kind {
		case Submit:
			if _, err := io.WriteString(e.out, "\r\n"); err != nil {
				return "", 0, err
			}
			line := strings.TrimSpace(e.buf.String())
			if line != "" {
				e.history.Add(line)
			}
			e.drafts = nil
			return line, SignalSubmit, nil
		case EndOfText:
			if e.buf.Len() > 0 {
				continue
			}
			fallthrough
		case ForceQuit:
			e.drafts = nil
			if _, err := io.WriteString(e.out, "\r\n"); err != nil {
				return "", 0, err
			}
			return "", SignalForceQuit, nil
		}

		if err := e.apply(act); err != nil {
			return "", 0, err
		}
	}
}

func (e *Editor) apply(act Action) error {
	switch act.Kind {
	case Insert:
		return e.buf.Insert(act.Rune)
	case DeleteBackward:
		return e.buf.DeleteBackward()
	case DeleteForward:
		return e.buf.DeleteForward()
	case MoveHome:
		return e.buf.Home()
	case MoveEnd:
		return e.buf.End()
	case CursorLeft:
		return e.buf.Left(act.Count)
	case CursorRight:
		return e.buf.Right(act.Count)
	case WordForward:
		return e.buf.WordForward()
	case WordBackward:
		return e.buf.WordBackward()
	case Redraw:
		return e.buf.Redraw(e.prompt)
	case HistoryUp:
		return e.recall(act.Count, e.drafts.Prev)
	case HistoryDown:
		return e.recall(act.Count, e.drafts.Next)
	}
	return nil
}

// recall steps through the overlay count times, stashing the edited
// text in the slot being left.  Stepping past either end is a no-op.
func (e *Editor) recall(count int, step func() (string, bool)) error {
	e.drafts.Save(e.buf.String())
	moved := false
	var text string
	for i := 0; i < count; i++ {
		s, ok := step()
		if !ok {
			break
		}
		text, moved = s, true
	}
	if !moved {
		return nil
	}
	return e.buf.Replace(text)
}
