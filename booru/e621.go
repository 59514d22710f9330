package booru

import (
	"encoding/json"
	"strings"
)

type e621Post struct {
	ID   uint64 `json:"id"`
	File struct {
		URL string `json:"url"`
		MD5 string `json:"md5"`
		Ext string `json:"ext"`
	} `json:"file"`
	Rating string `json:"rating"`
	Tags   struct {
		General   []string `json:"general"`
		Species   []string `json:"species"`
		Character []string `json:"character"`
		Copyright []string `json:"copyright"`
		Artist    []string `json:"artist"`
		Lore      []string `json:"lore"`
		Meta      []string `json:"meta"`
	} `json:"tags"`
}

func (raw e621Post) post() Post {
	tags := make([]string, 0,
		len(raw.Tags.General)+len(raw.Tags.Species)+len(raw.Tags.Character)+
			len(raw.Tags.Copyright)+len(raw.Tags.Artist)+len(raw.Tags.Lore)+len(raw.Tags.Meta))
	for _, group := range [][]string{
		raw.Tags.General, raw.Tags.Species, raw.Tags.Character,
		raw.Tags.Copyright, raw.Tags.Artist, raw.Tags.Lore, raw.Tags.Meta,
	} {
		tags = append(tags, group...)
	}
	p := Post{
		ID:        raw.ID,
		Site:      E621,
		MD5:       strings.ToLower(raw.File.MD5),
		URL:       raw.File.URL,
		Extension: strings.ToLower(raw.File.Ext),
		Rating:    ParseRating(raw.Rating),
		Tags:      normalizeTags(tags),
		PostURL:   E621.PostPageURL(raw.ID),
	}
	if p.Extension == "" {
		p.Extension = extensionFromURL(p.URL)
	}
	return p
}

func parseE621Page(data []byte) ([]Post, error) {
	var top struct {
		Posts []e621Post `json:"posts"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(top.Posts))
	for _, raw := range top.Posts {
		posts = append(posts, raw.post())
	}
	return posts, nil
}

func parseE621Post(data []byte) (Post, error) {
	var top struct {
		Post e621Post `json:"post"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return Post{}, err
	}
	return top.Post.post(), nil
}
