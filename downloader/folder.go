package downloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/silverfox-dev/boorudl/booru"
	"github.com/silverfox-dev/boorudl/utils"
)

// FolderSink writes each post under <root>/<rating>/<name>. Placement
// is atomic: bytes go to a temp file first and are renamed into place
// only after a successful fsync, so an interrupted run never leaves a
// half-written image behind.
type FolderSink struct {
	root string
}

func NewFolderSink(root string) *FolderSink {
	return &FolderSink{root: root}
}

func (s *FolderSink) Contains(p booru.Post, name string) bool {
	_, err := os.Stat(filepath.Join(s.root, p.Rating.String(), name))
	return err == nil
}

// Store places data under the post's rating directory. A name
// collision with identical content is reported as ErrDuplicate; with
// differing content the file gets a numeric infix (name.1.ext,
// name.2.ext, ...) until a free slot is found.
func (s *FolderSink) Store(p booru.Post, name string, data []byte) error {
	dir := filepath.Join(s.root, p.Rating.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	sum := utils.MD5Bytes(data)

	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s.%d%s", base, n, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return s.place(dir, path, data)
		}
		if err != nil {
			return err
		}
		existing, err := utils.MD5Sum(f)
		f.Close()
		if err != nil {
			return err
		}
		if existing == sum {
			return ErrDuplicate
		}
	}
}

func (s *FolderSink) place(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FolderSink) Close() error { return nil }
