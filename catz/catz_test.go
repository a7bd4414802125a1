package catz

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestGZRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub", "trajectories.geojson.gz")

	w, err := OpenWriter(target)
	if err != nil {
		t.Fatal(err)
	}
	enc := json.NewEncoder(w)
	for i := 0; i < 100; i++ {
		if err := enc.Encode(map[string]int{"i": i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(target)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		want := fmt.Sprintf(`{"i":%d}`, count)
		if got := scanner.Text(); got != want {
			t.Fatalf("line %d: got %s, want %s", count, got, want)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	if count != 100 {
		t.Errorf("got %d lines, want 100", count)
	}
}

func TestOpenWriter_Truncates(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.ndjson")
	for _, s := range []string{"first run, long line\n", "second\n"} {
		w, err := OpenWriter(target)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(s)); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second\n" {
		t.Errorf("got %q", got)
	}
}

func TestNewGZFileReader_NotGZ(t *testing.T) {
	target := filepath.Join(t.TempDir(), "plain.gz")
	if err := os.WriteFile(target, []byte("not gzip"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewGZFileReader(target); err == nil {
		t.Fatal("expected error")
	}
}
