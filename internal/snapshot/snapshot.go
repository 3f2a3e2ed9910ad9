package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"pedidos/internal/state"
)

const (
	stateFile  = "state.json"
	latestFile = "latest.json"
)

// Manifest points at the most recent snapshot.
type Manifest struct {
	SnapshotID           string `json:"snapshotId"`
	Keys                 int    `json:"keys"`
	CreatedAtEpochSecond int64  `json:"createdAt"`
}

type Snapshotter interface {
	WriteSnapshot(snapshotID string, st state.Store) error
}

type FilesystemSnapshotter struct {
	baseDir string
}

func NewFilesystemSnapshotter(baseDir string) *FilesystemSnapshotter {
	return &FilesystemSnapshotter{baseDir: baseDir}
}

// NowUnix returns current time in epoch seconds. Split for testability.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }

// NewID returns a sortable snapshot id for the current time.
func NewID() string {
	return time.Unix(NowUnix(), 0).UTC().Format("20060102T150405Z")
}

// WriteSnapshot dumps every key of st to <base>/<id>/state.json and
// marks it as the latest snapshot. Values must be JSON documents.
func (f *FilesystemSnapshotter) WriteSnapshot(snapshotID string, st state.Store) error {
	dump := make(map[string]json.RawMessage)
	if err := st.Range(func(key string, val []byte) error {
		if !json.Valid(val) {
			return fmt.Errorf("key %q: value is not JSON", key)
		}
		dump[key] = json.RawMessage(val)
		return nil
	}); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(f.baseDir, snapshotID), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := writeJSON(filepath.Join(f.baseDir, snapshotID, stateFile), dump); err != nil {
		return err
	}
	m := Manifest{SnapshotID: snapshotID, Keys: len(dump), CreatedAtEpochSecond: NowUnix()}
	return writeJSON(filepath.Join(f.baseDir, latestFile), m)
}

// ReadLatest returns the manifest of the last written snapshot.
func (f *FilesystemSnapshotter) ReadLatest() (Manifest, bool, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, latestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, false, nil
	}
	if err != nil {
		return Manifest{}, false, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, false, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, true, nil
}

// ReadSnapshot loads the key dump of snapshotID.
func (f *FilesystemSnapshotter) ReadSnapshot(snapshotID string) (map[string][]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, snapshotID, stateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot: %w", err)
	}
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	out := make(map[string][]byte, len(dump))
	for k, v := range dump {
		// state.json is indented on write
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, false, fmt.Errorf("compact %q: %w", k, err)
		}
		out[k] = buf.Bytes()
	}
	return out, true, nil
}

// Restore replaces the contents of st with snapshotID, or with the latest
// snapshot when snapshotID is empty. It reports false when there is nothing to restore.
func (f *FilesystemSnapshotter) Restore(snapshotID string, st state.Store) (string, bool, error) {
	if snapshotID == "" {
		m, ok, err := f.ReadLatest()
		if err != nil || !ok {
			return "", false, err
		}
		snapshotID = m.SnapshotID
	}
	dump, ok, err := f.ReadSnapshot(snapshotID)
	if err != nil || !ok {
		return snapshotID, false, err
	}
	if err := st.LoadAll(dump); err != nil {
		return snapshotID, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshotID, true, nil
}

func writeJSON(path string, v any) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
