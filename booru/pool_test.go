package booru

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// rewriteTransport redirects every request to the test server while
// keeping the request path intact.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func testClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Transport: rewriteTransport{target: u}}
}

func danbooruSingle(id uint64) []byte {
	data, _ := json.Marshal(danbooruPost{
		ID:      id,
		FileURL: fmt.Sprintf("https://cdn.example/%d.jpg", id),
		FileExt: "jpg",
		Rating:  "g",
	})
	return data
}

func poolServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/posts/30.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(danbooruSingle(30))
	})
	mux.HandleFunc("/posts/10.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(danbooruSingle(10))
	})
	mux.HandleFunc("/posts/20.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/pools/9.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 9, "name": "test pool", "post_ids": [30, 20, 10]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPostsSkipsMissing(t *testing.T) {
	srv := poolServer(t)
	ex := &Extractor{Site: Danbooru, Client: testClient(t, srv)}

	out := make(chan Post, 8)
	count, highest, err := ex.Posts(context.Background(), []uint64{30, 20, 10}, out)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if highest != 30 {
		t.Errorf("highest = %d, want 30", highest)
	}

	// Given order is preserved, the missing id silently dropped.
	got := drain(out)
	if len(got) != 2 || got[0].ID != 30 || got[1].ID != 10 {
		t.Errorf("posts = %v", got)
	}
}

func TestPoolOrder(t *testing.T) {
	srv := poolServer(t)
	ex := &Extractor{Site: Danbooru, Client: testClient(t, srv)}

	out := make(chan Post, 8)
	count, _, err := ex.Pool(context.Background(), 9, out)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	got := drain(out)
	if len(got) != 2 || got[0].ID != 30 || got[1].ID != 10 {
		t.Errorf("pool order broken: %v", got)
	}
}

func TestPoolUnsupportedSite(t *testing.T) {
	ex := &Extractor{Site: Rule34}
	out := make(chan Post)
	_, _, err := ex.Pool(context.Background(), 9, out)
	if KindOf(err) != KindConfig {
		t.Fatalf("err = %v, want Config", err)
	}
	if _, ok := <-out; ok {
		t.Error("channel not closed")
	}
}
