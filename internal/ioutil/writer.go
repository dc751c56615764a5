// Package ioutil holds small I/O helpers shared by the VM and the CLI.
package ioutil

import (
	"io"

	"github.com/pkg/errors"
)

// ErrWriter wraps an io.Writer and latches the first error it sees;
// subsequent writes are no-ops that keep returning that error. This lets
// the VM's PRINTLN handler ignore write errors inline; the first failure
// stays in Err. The VM itself does not read Err, so a failed write does
// not change its InterpretResult.
type ErrWriter struct {
	w   io.Writer
	Err error
}

// NewErrWriter wraps w.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}

func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}
