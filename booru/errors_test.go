package booru

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		KindAuthFailed:       "AuthFailed",
		KindInsufficientAuth: "InsufficientAuth",
		KindNetwork:          "Network",
		KindAPIShape:         "ApiShape",
		KindRateLimited:      "RateLimited",
		KindCorrupt:          "Corrupt",
		KindNotFound:         "NotFound",
		KindIO:               "IoFailed",
		KindConfig:           "Config",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}

func TestErrorFatal(t *testing.T) {
	for _, k := range []Kind{KindCorrupt, KindNotFound} {
		if (&Error{Kind: k}).Fatal() {
			t.Errorf("%s should not be fatal", k)
		}
	}
	for _, k := range []Kind{KindAuthFailed, KindNetwork, KindAPIShape, KindRateLimited, KindIO, KindConfig} {
		if !(&Error{Kind: k}).Fatal() {
			t.Errorf("%s should be fatal", k)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindNetwork, Site: E621, Err: inner})
	if KindOf(err) != KindNetwork {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if !errors.Is(err, inner) {
		t.Error("inner error lost")
	}
}
