package state

import "testing"

func TestInMemoryStore_PutGetDelete(t *testing.T) {
	s := NewInMemoryStore()

	if _, ok, err := s.Get("k"); err != nil || ok {
		t.Fatalf("empty store should miss: ok=%v err=%v", ok, err)
	}
	if err := s.Put("k", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
	}

	// returned slices are copies
	v[0] = 'X'
	if again, _, _ := s.Get("k"); string(again) != "v1" {
		t.Fatalf("store leaked its buffer: %q", again)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatalf("key should be gone")
	}
}

func TestInMemoryStore_LoadAllAndRange(t *testing.T) {
	s := NewInMemoryStore()
	_ = s.Put("old", []byte("x"))
	if err := s.LoadAll(map[string][]byte{"b": []byte("2"), "a": []byte("1")}); err != nil {
		t.Fatalf("load: %v", err)
	}
	var keys []string
	if err := s.Range(func(k string, v []byte) error { keys = append(keys, k+"="+string(v)); return nil }); err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a=1" || keys[1] != "b=2" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
