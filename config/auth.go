package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"

	"github.com/silverfox-dev/boorudl/booru"
)

const authFile = "auth.toml"

// keyringService is the name the tool registers its secrets under in
// the OS credential store.
const keyringService = AppDir

type authEntry struct {
	Login  string `toml:"login"`
	APIKey string `toml:"api_key"`
}

// Auth holds the per-site credentials from auth.toml.
type Auth struct {
	sites map[string]authEntry
}

// LoadAuth reads auth.toml from dir. A missing file means anonymous
// access everywhere and is not an error.
func LoadAuth(dir string) (*Auth, error) {
	path := filepath.Join(dir, authFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Auth{sites: map[string]authEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}

	sites := map[string]authEntry{}
	if err := toml.Unmarshal(data, &sites); err != nil {
		return nil, &booru.Error{Kind: booru.KindConfig,
			Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	for name := range sites {
		if _, err := booru.ParseSite(name); err != nil {
			return nil, &booru.Error{Kind: booru.KindConfig,
				Err: fmt.Errorf("%s: unknown site %q", path, name)}
		}
	}
	return &Auth{sites: sites}, nil
}

// Credential resolves the credentials for site. An entry with a login
// but no api_key falls back to the OS keyring, so the key never has to
// sit in a plain text file.
func (a *Auth) Credential(site booru.Site) booru.Credential {
	if a == nil {
		return booru.Credential{}
	}
	entry, ok := a.sites[site.String()]
	if !ok {
		return booru.Credential{}
	}
	if entry.Login != "" && entry.APIKey == "" {
		if key, err := keyring.Get(keyringService, site.String()); err == nil {
			entry.APIKey = key
		}
	}
	return booru.Credential{Login: entry.Login, APIKey: entry.APIKey}
}

// StoreKey saves a site's api key in the OS keyring.
func StoreKey(site booru.Site, apiKey string) error {
	return keyring.Set(keyringService, site.String(), apiKey)
}
