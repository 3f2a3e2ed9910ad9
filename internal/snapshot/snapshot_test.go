package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pedidos/internal/state"
)

func TestWriteSnapshot_WritesStateJSONAndManifest(t *testing.T) {
	old := NowUnix
	defer func() { NowUnix = old }()
	NowUnix = func() int64 { return 1700000000 }

	dir := t.TempDir()
	s := state.NewInMemoryStore()
	_ = s.Put("lojas_draft_v2", []byte(`{"loja":"Loja 5","itemsByLoja":{}}`))
	_ = s.Put("loja_draft_v1", []byte(`{"loja":"Loja 1","items":[]}`))

	snap := NewFilesystemSnapshotter(dir)
	id := NewID()
	if id != "20231114T221320Z" {
		t.Fatalf("unexpected id: %s", id)
	}
	if err := snap.WriteSnapshot(id, s); err != nil {
		t.Fatalf("WriteSnapshot error: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, id, "state.json"))
	if err != nil {
		t.Fatalf("state.json missing: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("unexpected keys: %v", m)
	}

	latest, ok, err := snap.ReadLatest()
	if err != nil || !ok {
		t.Fatalf("ReadLatest: ok=%v err=%v", ok, err)
	}
	if latest.SnapshotID != id || latest.Keys != 2 || latest.CreatedAtEpochSecond != 1700000000 {
		t.Fatalf("unexpected manifest: %+v", latest)
	}
}

func TestWriteSnapshot_RejectsNonJSONValues(t *testing.T) {
	s := state.NewInMemoryStore()
	_ = s.Put("k", []byte("not json"))
	if err := NewFilesystemSnapshotter(t.TempDir()).WriteSnapshot("sid", s); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRestore_LatestReplacesStore(t *testing.T) {
	dir := t.TempDir()
	src := state.NewInMemoryStore()
	_ = src.Put("lojas_draft_v2", []byte(`{"loja":"Loja 2"}`))
	snap := NewFilesystemSnapshotter(dir)
	if err := snap.WriteSnapshot("sid", src); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	dst := state.NewInMemoryStore()
	_ = dst.Put("stale", []byte(`1`))
	id, ok, err := snap.Restore("", dst)
	if err != nil || !ok || id != "sid" {
		t.Fatalf("restore: id=%s ok=%v err=%v", id, ok, err)
	}
	if _, found, _ := dst.Get("stale"); found {
		t.Fatalf("restore should replace existing keys")
	}
	v, found, _ := dst.Get("lojas_draft_v2")
	if !found || string(v) != `{"loja":"Loja 2"}` {
		t.Fatalf("unexpected restored value: %q", v)
	}
}

func TestRestore_NothingToRestore(t *testing.T) {
	snap := NewFilesystemSnapshotter(t.TempDir())
	st := state.NewInMemoryStore()
	if _, ok, err := snap.Restore("", st); err != nil || ok {
		t.Fatalf("expected no-op: ok=%v err=%v", ok, err)
	}
	if _, ok, err := snap.Restore("missing", st); err != nil || ok {
		t.Fatalf("expected no-op for missing id: ok=%v err=%v", ok, err)
	}
}
