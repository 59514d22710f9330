package booru

import (
	"fmt"
	"regexp"
	"strings"
)

// Rating is the content safety classification of a post.
type Rating int

const (
	RatingSafe Rating = iota
	RatingQuestionable
	RatingExplicit
	RatingUnknown
)

func (r Rating) String() string {
	switch r {
	case RatingSafe:
		return "Safe"
	case RatingQuestionable:
		return "Questionable"
	case RatingExplicit:
		return "Explicit"
	default:
		return "Unknown"
	}
}

// ParseRating maps the rating strings and abbreviations used by the
// site APIs onto a Rating. Unrecognized input is RatingUnknown.
func ParseRating(s string) Rating {
	switch s {
	case "s", "g", "safe", "sensitive", "general":
		return RatingSafe
	case "q", "questionable":
		return RatingQuestionable
	case "e", "explicit":
		return RatingExplicit
	default:
		return RatingUnknown
	}
}

var md5Pattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ValidMD5 reports whether s is a lowercase 32-digit hex MD5.
func ValidMD5(s string) bool {
	return md5Pattern.MatchString(s)
}

// Post is the normalized record every extractor variant produces.
type Post struct {
	ID        uint64
	Site      Site
	MD5       string
	URL       string
	Extension string
	Rating    Rating
	Tags      []string
	PostURL   string
}

// Name returns the base filename for the post: the MD5 hash when
// available, the post id otherwise. Passing useID forces the id form.
func (p Post) Name(useID bool) string {
	if useID || p.MD5 == "" {
		return fmt.Sprintf("%d", p.ID)
	}
	return p.MD5
}

// FileName returns Name plus the post's extension.
func (p Post) FileName(useID bool) string {
	return fmt.Sprintf("%s.%s", p.Name(useID), p.Extension)
}

// SeqFileName returns the id zero-padded to digits, used when saving
// pools so the files sort in pool order.
func (p Post) SeqFileName(digits int) string {
	return fmt.Sprintf("%0*d.%s", digits, p.ID, p.Extension)
}

// HasAnyTag reports whether the post carries at least one tag in set.
func (p Post) HasAnyTag(set map[string]struct{}) bool {
	for _, t := range p.Tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// normalizeTags lowercases, drops empties and deduplicates while keeping
// first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// extensionFromURL extracts the lowercase file extension of a media URL.
func extensionFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	i := strings.LastIndexByte(u, '.')
	if i < 0 || i == len(u)-1 {
		return ""
	}
	ext := strings.ToLower(u[i+1:])
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
