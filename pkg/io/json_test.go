package io

import (
	"os"
	"path/filepath"
	"testing"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadJSONMissing(t *testing.T) {
	v := doc{Name: "default"}
	found, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if found {
		t.Error("found = true, want false")
	}
	if v.Name != "default" {
		t.Errorf("v.Name = %q, want untouched default", v.Name)
	}
}

func TestReadJSONEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v doc
	found, err := ReadJSON(path, &v)
	if err != nil || found {
		t.Errorf("ReadJSON = %v, %v; want false, nil", found, err)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v doc
	if _, err := ReadJSON(path, &v); err == nil {
		t.Error("expected decode error")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "doc.json")
	if err := WriteJSON(path, doc{Name: "chart", Count: 3}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got doc
	found, err := ReadJSON(path, &got)
	if err != nil || !found {
		t.Fatalf("ReadJSON = %v, %v", found, err)
	}
	if got != (doc{Name: "chart", Count: 3}) {
		t.Errorf("got %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the document", len(entries))
	}
}

func TestWriteAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "out.bin")
	if err := WriteAtomic(path, []byte("x")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.json")
	if err := Remove(path); err != nil {
		t.Errorf("Remove missing: %v", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists")
	}
}
