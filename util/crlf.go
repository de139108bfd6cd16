package util

import (
	"io"
	"strings"
)

// CRLF normalises every line ending in s to "\r\n", which is what a raw
// remote terminal needs to return the carriage as well as feed the line.
func CRLF(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// CRLFWriter rewrites bare "\n" to "\r\n" on the way through.
type CRLFWriter struct {
	w     io.Writer
	sawCR bool
}

// NewCRLFWriter wraps w.
func NewCRLFWriter(w io.Writer) *CRLFWriter { return &CRLFWriter{w: w} }

// Write implements io.Writer.  It reports len(p) on success even though
// more bytes may reach the underlying writer.
func (c *CRLFWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' && !c.sawCR {
			out = append(out, '\r')
		}
		out = append(out, b)
		c.sawCR = b == '\r'
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
