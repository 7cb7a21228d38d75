package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans writes out to all given writers. Unlike io.MultiWriter
// it keeps writing to the remaining writers when one of them fails and
// reports the combined error.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{writers: writers}
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var total int
	var err error
	for _, w := range cw.writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		total += n
	}
	return total, err
}
