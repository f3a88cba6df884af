package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/wricardo/mcp-training/gridcleaner/game/service"
)

// Recorder is a write-only sink for session transcripts. Transcripts are never
// read back into a live session.
type Recorder interface {
	// Record appends one entry to the transcript of entry.SessionID
	Record(entry service.TranscriptEntry) error

	// CloseSession finishes the transcript of one session
	CloseSession(id string) error

	// Close finishes every open transcript
	Close() error
}

// ZstdRecorder writes one zstd-compressed JSONL file per session run:
// <dir>/<session>-<run>.jsonl.zst
type ZstdRecorder struct {
	dir string

	mu    sync.Mutex
	files map[string]*transcript
}

type transcript struct {
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

// NewZstdRecorder creates the transcript directory if needed
func NewZstdRecorder(dir string) (*ZstdRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &ZstdRecorder{
		dir:   dir,
		files: make(map[string]*transcript),
	}, nil
}

// Record appends entry as one JSON line
func (r *ZstdRecorder) Record(entry service.TranscriptEntry) error {
	if entry.SessionID == "" {
		return errors.New("transcript entry has no session id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.openLocked(entry.SessionID)
	if err != nil {
		return err
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return err
	}
	return t.w.Flush()
}

// Path returns the transcript file of an open session
func (r *ZstdRecorder) Path(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.files[strings.ToLower(id)]
	if !ok {
		return "", false
	}
	return t.path, true
}

// CloseSession finishes one transcript. Unknown sessions are ignored.
func (r *ZstdRecorder) CloseSession(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(id)
	t, ok := r.files[key]
	if !ok {
		return nil
	}
	delete(r.files, key)
	return t.close()
}

// Close finishes every open transcript
func (r *ZstdRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, t := range r.files {
		errs = append(errs, t.close())
		delete(r.files, key)
	}
	return errors.Join(errs...)
}

func (r *ZstdRecorder) openLocked(id string) (*transcript, error) {
	key := strings.ToLower(id)
	if t, ok := r.files[key]; ok {
		return t, nil
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.jsonl.zst", key, uuid.NewString()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}

	t := &transcript{path: path, f: f, enc: enc, w: bufio.NewWriter(enc)}
	r.files[key] = t
	return t, nil
}

func (t *transcript) close() error {
	_ = t.w.Flush()
	err := t.enc.Close()
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadTranscript decodes a finished transcript file
func ReadTranscript(path string) ([]service.TranscriptEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var entries []service.TranscriptEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e service.TranscriptEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
