package booru

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Posts fetches individual posts by id and feeds the accepted ones to
// out in the order the ids were given. Missing ids are logged and
// skipped rather than failing the run.
func (e *Extractor) Posts(ctx context.Context, ids []uint64, out chan<- Post) (count, highest uint64, err error) {
	defer close(out)

	for _, id := range ids {
		p, err := e.fetchPost(ctx, id)
		if err != nil {
			var be *Error
			if errors.As(err, &be) && be.Kind == KindNotFound {
				e.log().Printf("post %d not found, skipping", id)
				continue
			}
			return count, highest, err
		}
		if !e.filter().Accept(p) {
			continue
		}
		select {
		case out <- p:
		case <-ctx.Done():
			return count, highest, ctx.Err()
		}
		count++
		if p.ID > highest {
			highest = p.ID
		}
	}
	return count, highest, nil
}

// Pool fetches a curated pool and emits its posts in pool order. Only
// Danbooru and e621 expose pools.
func (e *Extractor) Pool(ctx context.Context, poolID uint64, out chan<- Post) (count, highest uint64, err error) {
	u := e.Site.PoolURL(poolID)
	if u == "" {
		close(out)
		return 0, 0, e.fail(KindConfig, fmt.Errorf("%s has no pool API", e.Site))
	}

	body, err := e.fetch(ctx, u)
	if err != nil {
		close(out)
		return 0, 0, err
	}

	var pool struct {
		ID      uint64   `json:"id"`
		Name    string   `json:"name"`
		PostIDs []uint64 `json:"post_ids"`
	}
	if err := json.Unmarshal(body, &pool); err != nil {
		close(out)
		return 0, 0, e.fail(KindAPIShape, err)
	}
	e.log().Printf("pool %d (%s): %d posts", pool.ID, pool.Name, len(pool.PostIDs))

	return e.Posts(ctx, pool.PostIDs, out)
}

func (e *Extractor) fetchPost(ctx context.Context, id uint64) (Post, error) {
	body, err := e.fetch(ctx, e.Site.PostByIDURL(id))
	if err != nil {
		return Post{}, err
	}

	switch e.Site {
	case Danbooru:
		p, err := parseDanbooruPost(body)
		if err != nil {
			return Post{}, e.fail(KindAPIShape, err)
		}
		return p, nil
	case E621:
		p, err := parseE621Post(body)
		if err != nil {
			return Post{}, e.fail(KindAPIShape, err)
		}
		return p, nil
	default:
		posts, err := parsePage(e.Site, body)
		if err != nil {
			return Post{}, e.fail(KindAPIShape, err)
		}
		if len(posts) == 0 {
			return Post{}, &Error{Kind: KindNotFound, Site: e.Site, PostID: id}
		}
		return posts[0], nil
	}
}
