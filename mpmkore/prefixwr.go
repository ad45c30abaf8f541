package mpmkore

import (
	"bytes"
	"io"
)

// PrefixWriter writes Prefix in front of every line it passes on to W. A
// line is prefixed when its first byte is written.
type PrefixWriter struct {
	W      io.Writer
	Prefix string

	midLine bool
}

func (pw *PrefixWriter) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		if !pw.midLine {
			if _, err = io.WriteString(pw.W, pw.Prefix); err != nil {
				return n, err
			}
		}
		line := p
		if i := bytes.IndexByte(p, '\n'); i >= 0 {
			line = p[:i+1]
		}
		m, err := pw.W.Write(line)
		n += m
		if err != nil {
			return n, err
		}
		pw.midLine = line[len(line)-1] != '\n'
		p = p[len(line):]
	}
	return n, nil
}
