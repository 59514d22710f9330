package booru

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies pipeline failures. Extractor-fatal kinds abort the
// whole run; per-post kinds only bump the failure counters.
type Kind int

const (
	// KindAuthFailed means the site rejected the supplied credentials.
	KindAuthFailed Kind = iota
	// KindInsufficientAuth means the query requires credentials on this
	// site (e.g. more than two tags anonymously on Danbooru).
	KindInsufficientAuth
	// KindNetwork is a transport failure after retries were exhausted.
	KindNetwork
	// KindAPIShape means the site JSON did not match the expected
	// schema. Never retried: it indicates schema drift, not flakiness.
	KindAPIShape
	// KindRateLimited is HTTP 429 still failing after backoff.
	KindRateLimited
	// KindCorrupt is an MD5 mismatch that survived a re-download.
	KindCorrupt
	// KindNotFound is a 404/410 for a media URL.
	KindNotFound
	// KindIO is a sink write failure.
	KindIO
	// KindConfig is a malformed blacklist/auth file or an invalid flag
	// combination, detected at startup.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailed:
		return "AuthFailed"
	case KindInsufficientAuth:
		return "InsufficientAuth"
	case KindNetwork:
		return "Network"
	case KindAPIShape:
		return "ApiShape"
	case KindRateLimited:
		return "RateLimited"
	case KindCorrupt:
		return "Corrupt"
	case KindNotFound:
		return "NotFound"
	case KindIO:
		return "IoFailed"
	case KindConfig:
		return "Config"
	}
	return "Unknown"
}

// Error carries the failure kind plus the context a user needs to act
// on it: site, tags and post id where applicable.
type Error struct {
	Kind   Kind
	Site   Site
	Tags   []string
	PostID uint64
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: site %s", e.Kind, e.Site)
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, ", tags %q", strings.Join(e.Tags, " "))
	}
	if e.PostID != 0 {
		fmt.Fprintf(&b, ", post %d", e.PostID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether the error aborts the whole pipeline as opposed
// to failing a single post.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindCorrupt, KindNotFound:
		return false
	}
	return true
}

// KindOf extracts the Kind from err, or KindNetwork if err is not a
// pipeline error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindNetwork
}
