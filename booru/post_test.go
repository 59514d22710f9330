package booru

import "testing"

func TestParseRating(t *testing.T) {
	cases := map[string]Rating{
		"s":            RatingSafe,
		"g":            RatingSafe,
		"safe":         RatingSafe,
		"general":      RatingSafe,
		"sensitive":    RatingSafe,
		"q":            RatingQuestionable,
		"questionable": RatingQuestionable,
		"e":            RatingExplicit,
		"explicit":     RatingExplicit,
		"":             RatingUnknown,
		"bogus":        RatingUnknown,
	}
	for in, want := range cases {
		if got := ParseRating(in); got != want {
			t.Errorf("ParseRating(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRatingString(t *testing.T) {
	cases := map[Rating]string{
		RatingSafe:         "Safe",
		RatingQuestionable: "Questionable",
		RatingExplicit:     "Explicit",
		RatingUnknown:      "Unknown",
	}
	for r, want := range cases {
		if r.String() != want {
			t.Errorf("%d.String() = %q, want %q", r, r.String(), want)
		}
	}
}

func TestValidMD5(t *testing.T) {
	if !ValidMD5("0123456789abcdef0123456789abcdef") {
		t.Error("valid md5 rejected")
	}
	for _, bad := range []string{"", "0123", "0123456789ABCDEF0123456789ABCDEF", "g123456789abcdef0123456789abcdef"} {
		if ValidMD5(bad) {
			t.Errorf("ValidMD5(%q) = true", bad)
		}
	}
}

func TestPostNaming(t *testing.T) {
	p := Post{ID: 42, MD5: "0123456789abcdef0123456789abcdef", Extension: "jpg"}

	if got := p.FileName(false); got != "0123456789abcdef0123456789abcdef.jpg" {
		t.Errorf("FileName = %q", got)
	}
	if got := p.FileName(true); got != "42.jpg" {
		t.Errorf("FileName(useID) = %q", got)
	}
	if got := p.SeqFileName(6); got != "000042.jpg" {
		t.Errorf("SeqFileName = %q", got)
	}

	// No md5 falls back to the id.
	p.MD5 = ""
	if got := p.FileName(false); got != "42.jpg" {
		t.Errorf("FileName without md5 = %q", got)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{"A", " b ", "a", "", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtensionFromURL(t *testing.T) {
	cases := map[string]string{
		"https://x.example/a/b.jpg":        "jpg",
		"https://x.example/a/b.PNG?w=1":    "png",
		"https://x.example/a/b.webm#frag":  "webm",
		"https://x.example/a/noext":        "",
		"https://x.example/a.dir/trailing": "",
		"":                                 "",
	}
	for in, want := range cases {
		if got := extensionFromURL(in); got != want {
			t.Errorf("extensionFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
