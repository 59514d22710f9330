package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/silverfox-dev/boorudl/booru"
)

func TestFolderSinkLayout(t *testing.T) {
	root := t.TempDir()
	s := NewFolderSink(root)

	p := booru.Post{ID: 1, Rating: booru.RatingQuestionable}
	if err := s.Store(p, "abc.jpg", []byte("data")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, "Questionable", "abc.jpg")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Errorf("content = %q", data)
	}
	if !s.Contains(p, "abc.jpg") {
		t.Error("Contains false after store")
	}
	if s.Contains(booru.Post{Rating: booru.RatingSafe}, "abc.jpg") {
		t.Error("Contains true for wrong rating dir")
	}
}

func TestFolderSinkIdenticalCollision(t *testing.T) {
	root := t.TempDir()
	s := NewFolderSink(root)
	p := booru.Post{ID: 1, Rating: booru.RatingSafe}

	if err := s.Store(p, "x.png", []byte("same")); err != nil {
		t.Fatal(err)
	}
	if err := s.Store(p, "x.png", []byte("same")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestFolderSinkDifferingCollision(t *testing.T) {
	root := t.TempDir()
	s := NewFolderSink(root)
	p := booru.Post{ID: 1, Rating: booru.RatingSafe}

	for _, content := range []string{"one", "two", "three"} {
		if err := s.Store(p, "x.png", []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	for name, want := range map[string]string{
		"x.png":   "one",
		"x.1.png": "two",
		"x.2.png": "three",
	} {
		data, err := os.ReadFile(filepath.Join(root, "Safe", name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
}

// An interrupted run must never leave partially written media, so
// nothing but complete files may exist in the tree.
func TestFolderSinkNoTempLeftovers(t *testing.T) {
	root := t.TempDir()
	s := NewFolderSink(root)
	p := booru.Post{ID: 1, Rating: booru.RatingSafe}
	if err := s.Store(p, "a.jpg", []byte("data")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "Safe"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".download-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
