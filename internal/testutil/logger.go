// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"webhook-guard/internal/common/logging"
)

// SyncBuffer is a bytes.Buffer safe for the concurrent writes a server produces.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewBufferLogger returns a debug-level logger writing to the returned buffer.
func NewBufferLogger(t *testing.T) (logging.Logger, *SyncBuffer) {
	t.Helper()
	buf := &SyncBuffer{}
	logger, err := logging.NewZapLogger(logging.LogConfig{Level: logging.DebugLevel, Output: buf})
	require.NoError(t, err)
	return logger, buf
}
