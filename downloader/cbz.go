package downloader

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/silverfox-dev/boorudl/booru"
)

// manifestName is the metadata entry written into every archive.
const manifestName = "00_summary.json"

type cbzEntry struct {
	File    string   `json:"file"`
	ID      uint64   `json:"id"`
	Site    string   `json:"site"`
	Rating  string   `json:"rating"`
	MD5     string   `json:"md5,omitempty"`
	Tags    []string `json:"tags"`
	PostURL string   `json:"post_url"`
}

type cbzManifest struct {
	Site            string     `json:"site"`
	Tags            []string   `json:"tags"`
	HighestID       uint64     `json:"highest_id"`
	Timestamp       int64      `json:"timestamp"`
	DownloadedCount uint64     `json:"downloaded_count"`
	Posts           []cbzEntry `json:"posts"`
}

// CBZSink collects the run into a single comic-book archive. Images
// are stored uncompressed (they are already compressed formats) under
// per-rating folders, and Close appends a JSON manifest describing
// every entry. zip.Writer is not concurrency-safe, so a mutex
// serializes the workers.
type CBZSink struct {
	mu      sync.Mutex
	f       *os.File
	zw      *zip.Writer
	site    booru.Site
	tags    []string
	seen    map[string]struct{}
	entries []cbzEntry
}

func NewCBZSink(path string, site booru.Site, tags []string) (*CBZSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &CBZSink{
		f:    f,
		zw:   zip.NewWriter(f),
		site: site,
		tags: tags,
		seen: map[string]struct{}{},
	}, nil
}

// Contains always reports false: a zip being written cannot be probed,
// duplicate names are caught in Store instead.
func (s *CBZSink) Contains(booru.Post, string) bool { return false }

func (s *CBZSink) Store(p booru.Post, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := p.Rating.String() + "/" + name
	if _, ok := s.seen[entry]; ok {
		return ErrDuplicate
	}

	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     entry,
		Method:   zip.Store,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	s.seen[entry] = struct{}{}
	// Caption sidecars are stored but not manifest entries.
	if filepath.Ext(name) == ".txt" {
		return nil
	}
	s.entries = append(s.entries, cbzEntry{
		File:    entry,
		ID:      p.ID,
		Site:    p.Site.String(),
		Rating:  p.Rating.String(),
		MD5:     p.MD5,
		Tags:    p.Tags,
		PostURL: p.PostURL,
	})
	return nil
}

// Close writes the manifest and finalizes the archive.
func (s *CBZSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := cbzManifest{
		Site:      s.site.String(),
		Tags:      s.tags,
		Timestamp: time.Now().Unix(),
		Posts:     s.entries,
	}
	for _, e := range s.entries {
		if e.ID > m.HighestID {
			m.HighestID = e.ID
		}
		m.DownloadedCount++
	}

	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	w, err := s.zw.Create(manifestName)
	if err != nil {
		return err
	}
	if _, err := w.Write(manifest); err != nil {
		return err
	}
	if err := s.zw.Close(); err != nil {
		return err
	}
	if err := s.f.Sync(); err != nil {
		return err
	}
	return s.f.Close()
}
