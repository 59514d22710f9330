package summary

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/silverfox-dev/boorudl/booru"
)

func sample() *Summary {
	return &Summary{
		Site:            booru.Gelbooru,
		Tags:            []string{"a", "bc"},
		HighestID:       258,
		Timestamp:       time.Unix(1700000000, 0).UTC(),
		DownloadedCount: 7,
	}
}

// The body layout is a compatibility boundary: existing checkpoint
// files must keep decoding, so the exact bytes are pinned here.
func TestMarshalBodyLayout(t *testing.T) {
	want, err := hex.DecodeString(
		"02" + // site
			"0200000000000000" + // tag count
			"0100000000000000" + "61" + // "a"
			"0200000000000000" + "6263" + // "bc"
			"0201000000000000" + // highest id 258
			"00f1536500000000" + // unix 1700000000
			"0700000000000000") // downloaded count
	if err != nil {
		t.Fatal(err)
	}
	got := sample().marshalBody()
	if !bytes.Equal(got, want) {
		t.Fatalf("body = %x\nwant   %x", got, want)
	}
}

func TestBodyRoundTrip(t *testing.T) {
	s := sample()
	got, err := unmarshalBody(s.marshalBody())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(s) {
		t.Errorf("round trip changed summary: %+v != %+v", got, s)
	}
}

func TestEncodeDecode(t *testing.T) {
	s := sample()
	data, err := s.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(s) {
		t.Errorf("decoded %+v, want %+v", got, s)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not zstd at all")); err == nil {
		t.Error("garbage accepted")
	}
}

func TestUnmarshalBodyBounds(t *testing.T) {
	body := sample().marshalBody()
	truncated := body[:len(body)-10]
	if _, err := unmarshalBody(truncated); err == nil {
		t.Error("truncated body accepted")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "danbooru", "some tag")
	s := sample()
	if err := s.Save(dir); err != nil {
		t.Fatal(err)
	}
	got := Load(dir)
	if got == nil {
		t.Fatal("Load returned nil after Save")
	}
	if !got.Equal(s) {
		t.Errorf("loaded %+v, want %+v", got, s)
	}
}

func TestLoadMissingIsNil(t *testing.T) {
	if got := Load(t.TempDir()); got != nil {
		t.Errorf("Load of empty dir = %+v, want nil", got)
	}
}

func TestNewFoldsPriorHighest(t *testing.T) {
	prior := &Summary{HighestID: 500}
	s := New(booru.E621, []string{"x"}, 300, 2, prior)
	if s.HighestID != 500 {
		t.Errorf("highest = %d, want prior 500 kept", s.HighestID)
	}
	s = New(booru.E621, []string{"x"}, 700, 2, prior)
	if s.HighestID != 700 {
		t.Errorf("highest = %d, want 700", s.HighestID)
	}
}
