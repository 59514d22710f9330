package downloader

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/silverfox-dev/boorudl/booru"
)

func TestCBZSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.cbz")
	s, err := NewCBZSink(path, booru.Gelbooru, []string{"query"})
	if err != nil {
		t.Fatal(err)
	}

	posts := []booru.Post{
		{ID: 1, Site: booru.Gelbooru, Rating: booru.RatingSafe, MD5: "aa", Tags: []string{"a"}, PostURL: "https://gelbooru.com/1"},
		{ID: 2, Site: booru.Gelbooru, Rating: booru.RatingExplicit, MD5: "bb", Tags: []string{"b"}, PostURL: "https://gelbooru.com/2"},
	}
	if err := s.Store(posts[0], "one.jpg", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Store(posts[1], "two.jpg", []byte("second")); err != nil {
		t.Fatal(err)
	}
	// Same name and rating again is a duplicate.
	if err := s.Store(posts[0], "one.jpg", []byte("first")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	found := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		found[f.Name] = string(data)

		if f.Name != manifestName && f.Method != zip.Store {
			t.Errorf("%s compressed with method %d, want Store", f.Name, f.Method)
		}
	}

	if found["Safe/one.jpg"] != "first" || found["Explicit/two.jpg"] != "second" {
		t.Errorf("entries = %v", found)
	}

	var manifest cbzManifest
	if err := json.Unmarshal([]byte(found[manifestName]), &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.Site != "gelbooru" || manifest.HighestID != 2 || manifest.DownloadedCount != 2 {
		t.Errorf("manifest header = %+v", manifest)
	}
	if len(manifest.Posts) != 2 {
		t.Fatalf("manifest has %d entries, want 2", len(manifest.Posts))
	}
	if manifest.Posts[0].File != "Safe/one.jpg" || manifest.Posts[0].ID != 1 || manifest.Posts[0].PostURL != "https://gelbooru.com/1" {
		t.Errorf("manifest posts[0] = %+v", manifest.Posts[0])
	}
}
