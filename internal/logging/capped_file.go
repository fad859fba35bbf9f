package logging

import (
	"os"
	"sync"
)

const defaultMaxLogMB = 10

// cappedFile appends to a log file and starts it over once the next write
// would push it past maxBytes.
type cappedFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	f        *os.File
	written  int64
}

func newSizeLimitedWriter(path string, maxMB int) (*cappedFile, error) {
	if maxMB <= 0 {
		maxMB = defaultMaxLogMB
	}
	c := &cappedFile{path: path, maxBytes: int64(maxMB) << 20}
	if err := c.open(os.O_APPEND); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *cappedFile) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		if err := c.open(os.O_APPEND); err != nil {
			return 0, err
		}
	}
	if c.written+int64(len(p)) > c.maxBytes {
		_ = c.f.Close()
		if err := c.open(os.O_TRUNC); err != nil {
			c.f = nil
			return 0, err
		}
	}
	n, err := c.f.Write(p)
	c.written += int64(n)
	return n, err
}

func (c *cappedFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	return err
}

func (c *cappedFile) open(mode int) error {
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	c.f = f
	c.written = info.Size()
	return nil
}
