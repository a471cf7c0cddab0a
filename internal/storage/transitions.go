package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/chasesim/internal/chase"
)

// TransitionWriter appends one JSON line per transition to a zstd stream.
type TransitionWriter struct {
	mu    sync.Mutex
	f     *os.File
	enc   *zstd.Encoder
	w     *bufio.Writer
	count int
}

// OpenTransitions creates the transition log of runID, making the run
// directory if needed.
func (s *Store) OpenTransitions(runID string) (*TransitionWriter, error) {
	dir := s.runDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, transitionsFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TransitionWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *TransitionWriter) Write(tr chase.Transition) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return fmt.Errorf("transition log closed")
	}
	b, err := json.Marshal(tr)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.count++
	return nil
}

func (w *TransitionWriter) OnTick(sc *chase.Scene, tr chase.Transition) error {
	return w.Write(tr)
}

func (w *TransitionWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *TransitionWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// ReadTransitions streams the transition log of runID into fn in tick
// order. A non-nil error from fn stops the read and is returned.
func (s *Store) ReadTransitions(runID string, fn func(chase.Transition) error) error {
	f, err := os.Open(filepath.Join(s.runDir(runID), transitionsFile))
	if err != nil {
		return err
	}
	defer f.Close()
	return DecodeTransitions(f, fn)
}

func DecodeTransitions(r io.Reader, fn func(chase.Transition) error) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var tr chase.Transition
		if err := json.Unmarshal(sc.Bytes(), &tr); err != nil {
			return fmt.Errorf("transition line %d: %w", line, err)
		}
		if err := fn(tr); err != nil {
			return err
		}
	}
	return sc.Err()
}
