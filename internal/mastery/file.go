package mastery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type fileEntry struct {
	Counts    json.RawMessage `json:"counts"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// FilePersistence writes one JSON file per topic under a directory. Each write
// pushes the expiry Retention into the future; an expired file reads as empty.
type FilePersistence struct {
	dir string
	now func() time.Time
}

func NewFilePersistence(dir string) *FilePersistence {
	return &FilePersistence{dir: dir, now: time.Now}
}

// WithClock replaces the time source used for expiry.
func (f *FilePersistence) WithClock(now func() time.Time) *FilePersistence {
	f.now = now
	return f
}

func (f *FilePersistence) Get(_ context.Context, topic string) (map[string]int, error) {
	data, err := os.ReadFile(f.path(topic))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mastery file: %w", err)
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !entry.ExpiresAt.IsZero() && !f.now().Before(entry.ExpiresAt) {
		return nil, nil
	}
	if len(entry.Counts) == 0 {
		return nil, nil
	}
	return DecodeCounts(entry.Counts)
}

func (f *FilePersistence) Put(_ context.Context, topic string, counts map[string]int) error {
	payload, err := EncodeCounts(counts)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fileEntry{
		Counts:    payload,
		ExpiresAt: f.now().Add(Retention).UTC(),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create mastery dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".mastery-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write mastery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write mastery file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path(topic))
}

func (f *FilePersistence) path(topic string) string {
	return filepath.Join(f.dir, "quiz_"+fileSafe(topic)+".json")
}

func fileSafe(topic string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, topic)
}
