package booru

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParseDanbooruPage(t *testing.T) {
	posts, err := parseDanbooruPage(fixture(t, "danbooru.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}

	p := posts[0]
	if p.ID != 7001234 {
		t.Errorf("id = %d", p.ID)
	}
	if p.Rating != RatingSafe {
		t.Errorf("rating g = %s, want Safe", p.Rating)
	}
	if p.Extension != "jpg" {
		t.Errorf("extension = %q", p.Extension)
	}
	want := []string{"1girl", "highres", "scenery"}
	if len(p.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", p.Tags, want)
	}
	for i := range want {
		if p.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, p.Tags[i], want[i])
		}
	}

	// Danbooru's "s" is Sensitive, not Safe.
	if posts[1].Rating != RatingQuestionable {
		t.Errorf("rating s = %s, want Questionable", posts[1].Rating)
	}
	// file_url empty falls back to large_file_url, extension from URL.
	if !strings.HasPrefix(posts[1].URL, "https://cdn.donmai.us/sample/") {
		t.Errorf("url = %q, want sample fallback", posts[1].URL)
	}
	if posts[1].Extension != "png" {
		t.Errorf("extension = %q, want png", posts[1].Extension)
	}
}

func TestParseE621Page(t *testing.T) {
	posts, err := parseE621Page(fixture(t, "e621.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.ID != 4400321 || p.Rating != RatingExplicit || p.Extension != "png" {
		t.Errorf("unexpected post %+v", p)
	}
	if p.MD5 != "11223344556677889900112233445566" {
		t.Errorf("md5 = %q", p.MD5)
	}
	// All tag categories are flattened.
	for _, want := range []string{"outside", "canine", "oc_character", "some_artist", "hi_res"} {
		if !hasTag(p, want) {
			t.Errorf("missing tag %q in %v", want, p.Tags)
		}
	}
}

func TestParseGelbooruWrappedPage(t *testing.T) {
	posts, err := parseGelbooruPage(Gelbooru, fixture(t, "gelbooru.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	// String id is coerced.
	if p.ID != 9105001 {
		t.Errorf("id = %d", p.ID)
	}
	if p.Rating != RatingQuestionable {
		t.Errorf("rating = %s", p.Rating)
	}
	if p.PostURL != "https://gelbooru.com/index.php?page=post&s=view&id=9105001" {
		t.Errorf("post url = %q", p.PostURL)
	}
}

func TestParseRule34BareArray(t *testing.T) {
	posts, err := parseGelbooruPage(Rule34, fixture(t, "rule34.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	if !strings.HasPrefix(p.URL, "https://") {
		t.Errorf("protocol-relative url not absolutized: %q", p.URL)
	}
	if p.Extension != "webm" {
		t.Errorf("extension = %q", p.Extension)
	}
	if p.MD5 != "abcdefabcdefabcdefabcdefabcdefab" {
		t.Errorf("md5 from hash field = %q", p.MD5)
	}
}

func TestParseRealbooruDerivedURL(t *testing.T) {
	posts, err := parseGelbooruPage(Realbooru, fixture(t, "realbooru.json"))
	if err != nil {
		t.Fatal(err)
	}
	p := posts[0]
	want := "https://realbooru.com/images/99/88/99887766554433221100ffeeddccbbaa.mp4"
	if p.URL != want {
		t.Errorf("url = %q, want %q", p.URL, want)
	}
}

func TestParseKonachanPage(t *testing.T) {
	posts, err := parseKonachanPage(fixture(t, "konachan.json"))
	if err != nil {
		t.Fatal(err)
	}
	p := posts[0]
	if !strings.HasPrefix(p.URL, "https://konachan.com/") {
		t.Errorf("url = %q, want https scheme added", p.URL)
	}
	if p.Extension != "png" {
		t.Errorf("extension = %q", p.Extension)
	}
	// Konachan's "s" really is Safe.
	if p.Rating != RatingSafe {
		t.Errorf("rating = %s", p.Rating)
	}
	if len(p.Tags) != 2 {
		t.Errorf("tags not deduplicated: %v", p.Tags)
	}
}

// Every parser must emit posts that are safe to hand to the rest of
// the pipeline: absolute URL, lowercase tags, valid or empty md5.
func TestParsersNormalize(t *testing.T) {
	cases := map[string]Site{
		"danbooru.json":  Danbooru,
		"e621.json":      E621,
		"gelbooru.json":  Gelbooru,
		"rule34.json":    Rule34,
		"realbooru.json": Realbooru,
		"konachan.json":  Konachan,
	}
	for name, site := range cases {
		posts, err := parsePage(site, fixture(t, name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, p := range posts {
			if p.Site != site {
				t.Errorf("%s: post %d has site %s", name, p.ID, p.Site)
			}
			if p.URL != "" && !strings.HasPrefix(p.URL, "https://") {
				t.Errorf("%s: post %d url not absolute: %q", name, p.ID, p.URL)
			}
			if p.MD5 != "" && !ValidMD5(p.MD5) {
				t.Errorf("%s: post %d md5 invalid: %q", name, p.ID, p.MD5)
			}
			if p.PostURL == "" {
				t.Errorf("%s: post %d has no post url", name, p.ID)
			}
			for _, tag := range p.Tags {
				if tag != strings.ToLower(tag) {
					t.Errorf("%s: post %d tag not lowercased: %q", name, p.ID, tag)
				}
			}
		}
	}
}

func hasTag(p Post, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
