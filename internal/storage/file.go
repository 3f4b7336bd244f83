package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fgfbot/internal/model"
	logx "fgfbot/pkg/logx"
)

// fileStore keeps state as one JSON array of {"id","title"} objects.
//
// The file is read once and overwritten in full on Save via tmp + rename, so a
// crash mid-write never leaves a truncated array behind. There is no locking;
// concurrent runs must be serialized by the caller.
type fileStore struct {
	log  logx.Logger
	path string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: cfg.Path}, nil
}

func (s *fileStore) Load(ctx context.Context) ([]model.SavedPost, error) {
	_ = ctx
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("state file absent, starting empty", logx.String("path", s.path))
		return []model.SavedPost{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", s.path, err)
	}

	var posts []model.SavedPost
	if err := json.Unmarshal(b, &posts); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if posts == nil {
		// A literal "null" decodes to nil; treat it as empty.
		posts = []model.SavedPost{}
	}
	return posts, nil
}

func (s *fileStore) Save(ctx context.Context, all []model.SavedPost) error {
	_ = ctx
	if all == nil {
		all = []model.SavedPost{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(all); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state: %w", err)
	}
	s.log.Debug("state saved", logx.String("path", s.path), logx.Int("entries", len(all)))
	return nil
}

func (s *fileStore) Close() error { return nil }
