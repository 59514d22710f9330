// Package config loads the user's blacklist and credential files from
// the per-user configuration directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/silverfox-dev/boorudl/booru"
)

// AppDir is the subdirectory under the user config root holding all of
// the tool's files.
const AppDir = "imageboard_downloader"

// Dir resolves the configuration directory, creating it when absent.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(base, AppDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

const blacklistFile = "blacklist.toml"

const blacklistTemplate = `# Tags listed under "global" are excluded on every imageboard.
# Per-site keys (danbooru, e621, gelbooru, rule34, konachan, realbooru)
# exclude tags on that site only.
[blacklist]
global = []
`

// Blacklist holds the tag exclusion lists. The zero value excludes
// nothing.
type Blacklist struct {
	Global []string
	Sites  map[string][]string
}

// ForSite returns the per-site list, nil when the site has none.
func (b *Blacklist) ForSite(site booru.Site) []string {
	if b == nil {
		return nil
	}
	return b.Sites[site.String()]
}

// GlobalTags returns the list applied on every site.
func (b *Blacklist) GlobalTags() []string {
	if b == nil {
		return nil
	}
	return b.Global
}

// LoadBlacklist reads blacklist.toml from dir. On first run the file
// does not exist yet; an empty template is written so the user has
// something to edit, and an empty blacklist is returned. A present but
// malformed file is a configuration error, not something to ignore.
func LoadBlacklist(dir string) (*Blacklist, error) {
	path := filepath.Join(dir, blacklistFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte(blacklistTemplate), 0o644); err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return &Blacklist{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw struct {
		Blacklist map[string][]string `toml:"blacklist"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &booru.Error{Kind: booru.KindConfig,
			Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	b := &Blacklist{Sites: map[string][]string{}}
	for key, tags := range raw.Blacklist {
		if key == "global" {
			b.Global = tags
			continue
		}
		if _, err := booru.ParseSite(key); err != nil {
			return nil, &booru.Error{Kind: booru.KindConfig,
				Err: fmt.Errorf("%s: unknown site %q", path, key)}
		}
		b.Sites[key] = tags
	}
	return b, nil
}
