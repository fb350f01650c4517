// Package host binds the deploy pipeline to the local process: its working
// directory and its standard output.
package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Adapter implements ports.WorkingDirPort and ports.NoticePort.
type Adapter struct {
	mu  sync.Mutex // serializes notices from concurrent releases
	out io.Writer
}

// New creates a host adapter writing notices to out (stdout when nil).
func New(out io.Writer) *Adapter {
	if out == nil {
		out = os.Stdout
	}
	return &Adapter{out: out}
}

// Getwd returns the process working directory.
func (a *Adapter) Getwd() (string, error) {
	return os.Getwd()
}

// Emit prints message on its own line.
func (a *Adapter) Emit(_ context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, message)
}
