// Package summary persists the per-query download checkpoint that lets
// a later run with --update skip everything it already has.
package summary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/silverfox-dev/boorudl/booru"
)

// FileName is the checkpoint's name inside the query directory. The
// leading dot keeps it out of the way of the downloaded media.
const FileName = ".00_download_summary.bin"

// Summary records the outcome of one successful run.
type Summary struct {
	Site            booru.Site
	Tags            []string
	HighestID       uint64
	Timestamp       time.Time
	DownloadedCount uint64
}

// New builds a summary for a finished run, folding in the prior
// checkpoint's highest id so an interrupted update never regresses.
func New(site booru.Site, tags []string, highestID, downloaded uint64, prior *Summary) *Summary {
	if prior != nil && prior.HighestID > highestID {
		highestID = prior.HighestID
	}
	return &Summary{
		Site:            site,
		Tags:            tags,
		HighestID:       highestID,
		Timestamp:       time.Now().UTC().Truncate(time.Second),
		DownloadedCount: downloaded,
	}
}

// The on-disk layout is the compatibility boundary with existing
// checkpoints: a zstd frame wrapping a little-endian body of
//
//	site      u8
//	tag count u64, then per tag: byte length u64 + UTF-8 bytes
//	highest_id, timestamp (unix seconds), downloaded_count  u64 each

func (s *Summary) marshalBody() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(s.Site))
	writeU64(&buf, uint64(len(s.Tags)))
	for _, t := range s.Tags {
		writeU64(&buf, uint64(len(t)))
		buf.WriteString(t)
	}
	writeU64(&buf, s.HighestID)
	writeU64(&buf, uint64(s.Timestamp.Unix()))
	writeU64(&buf, s.DownloadedCount)
	return buf.Bytes()
}

func unmarshalBody(data []byte) (*Summary, error) {
	r := bytes.NewReader(data)
	site, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	n, err := readU64(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, fmt.Errorf("summary: tag count %d exceeds remaining data", n)
	}
	tags := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		l, err := readU64(r)
		if err != nil {
			return nil, err
		}
		if l > uint64(r.Len()) {
			return nil, fmt.Errorf("summary: tag length %d exceeds remaining data", l)
		}
		raw := make([]byte, l)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
		tags = append(tags, string(raw))
	}
	highest, err := readU64(r)
	if err != nil {
		return nil, err
	}
	ts, err := readU64(r)
	if err != nil {
		return nil, err
	}
	downloaded, err := readU64(r)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Site:            booru.Site(site),
		Tags:            tags,
		HighestID:       highest,
		Timestamp:       time.Unix(int64(ts), 0).UTC(),
		DownloadedCount: downloaded,
	}, nil
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], v)
	buf.Write(raw[:])
}

func readU64(r *bytes.Reader) (uint64, error) {
	var raw [8]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(raw[:]), nil
}

// Encode serializes and zstd-compresses the summary.
func (s *Summary) Encode() ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(s.marshalBody(), nil), nil
}

// Decode reverses Encode.
func Decode(data []byte) (*Summary, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	body, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	return unmarshalBody(body)
}

// Load reads the checkpoint from dir. A missing or unreadable file is
// "no prior run", not an error: the caller simply downloads everything.
func Load(dir string) *Summary {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil
	}
	s, err := Decode(data)
	if err != nil {
		return nil
	}
	return s
}

// Save writes the checkpoint atomically via a temp file and rename.
func (s *Summary) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := s.Encode()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
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
	return os.Rename(tmp.Name(), filepath.Join(dir, FileName))
}

// Equal compares two summaries field for field, ignoring sub-second
// timestamp precision that the encoding cannot carry.
func (s *Summary) Equal(o *Summary) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Site != o.Site || s.HighestID != o.HighestID ||
		s.DownloadedCount != o.DownloadedCount ||
		s.Timestamp.Unix() != o.Timestamp.Unix() ||
		len(s.Tags) != len(o.Tags) {
		return false
	}
	for i := range s.Tags {
		if s.Tags[i] != o.Tags[i] {
			return false
		}
	}
	return true
}
