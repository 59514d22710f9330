package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cast"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var (
	help bool
	// imageboard to query
	imageboard string
	// output directory
	output string
	// concurrent downloads
	simultaneous int
	// max posts to accept
	limit int
	// first api page
	startPage int
	// safe-rated posts only
	safeMode bool
	// skip the blacklist files
	disableBlacklist bool
	// resume from the last checkpoint
	update bool
	// collect into a comic archive
	cbz bool
	// name files by post id instead of md5
	useID bool
	// write a tag sidecar next to each file
	annotate bool
	// refuse to run anonymously
	requireAuth bool
	// proxy url
	proxy string
	// media requests per second, 0 is unlimited
	rateLimit int
	// download retry count
	retry int
)

var configValues map[string]interface{}

func init() {
	flag.BoolVarP(&help, "help", "h", false, "show usage")
	flag.StringVarP(&imageboard, "imageboard", "i", "danbooru", "imageboard to download from: danbooru, e621, gelbooru, rule34, konachan, realbooru")
	flag.StringVarP(&output, "output", "o", "./downloads", "output directory")
	flag.IntVarP(&simultaneous, "simultaneous", "d", 5, "concurrent downloads")
	flag.IntVarP(&limit, "limit", "l", 0, "stop after this many posts, 0 means no limit")
	flag.IntVarP(&startPage, "start-page", "s", 1, "first search page to scan")
	flag.BoolVar(&safeMode, "safe-mode", false, "download Safe-rated posts only")
	flag.BoolVar(&disableBlacklist, "disable-blacklist", false, "ignore the blacklist files for this run")
	flag.BoolVar(&update, "update", false, "resume a previous search, skipping posts already downloaded")
	flag.BoolVar(&cbz, "cbz", false, "collect the run into a .cbz archive instead of a folder tree")
	flag.BoolVar(&useID, "id", false, "name files by post id instead of md5")
	flag.BoolVar(&annotate, "annotate", false, "write a .txt sidecar with the post's tags next to each file")
	flag.BoolVar(&requireAuth, "auth", false, "require configured credentials, fail instead of searching anonymously")
	flag.StringVar(&proxy, "proxy", "", "proxy url, e.g. http://proxy:8080 or socks5://proxy:1080")
	flag.IntVar(&rateLimit, "rate-limit", 0, "media requests per second, 0 means unlimited")
	flag.IntVar(&retry, "retry", 3, "download retry count")

	loadConfigFile()
}

// loadConfigFile reads ./config.yaml when present. Its values become
// flag defaults; flags passed on the command line still win.
func loadConfigFile() {
	data, err := os.ReadFile("config.yaml")
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Printf("read config.yaml failed: %v", err)
		return
	}
	if err := yaml.Unmarshal(data, &configValues); err != nil {
		log.Fatalf("parse config.yaml: %v", err)
	}
}

// applyConfig copies config.yaml values onto every flag the user did
// not set explicitly.
func applyConfig() {
	for name, value := range configValues {
		f := flag.Lookup(name)
		if f == nil {
			log.Printf("config.yaml: unknown option %q", name)
			continue
		}
		if f.Changed {
			continue
		}
		if err := f.Value.Set(cast.ToString(value)); err != nil {
			log.Fatalf("config.yaml: bad value for %q: %v", name, err)
		}
	}
}

func usage() {
	var b strings.Builder
	b.WriteString("usage: boorudl [flags] <command>\n\n")
	b.WriteString("commands:\n")
	b.WriteString("  search <tag>...   download every post matching the tags\n")
	b.WriteString("  post <id>...      download individual posts by id\n")
	b.WriteString("  pool <id>         download a curated pool in order (danbooru, e621)\n")
	b.WriteString("  save-key <key>    store the api key for -i in the OS keyring\n")
	b.WriteString("\nflags:\n")
	b.WriteString(flag.CommandLine.FlagUsages())
	fmt.Fprint(os.Stderr, b.String())
}
