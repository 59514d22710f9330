package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	boorudl "github.com/silverfox-dev/boorudl"
	"github.com/silverfox-dev/boorudl/booru"
	"github.com/silverfox-dev/boorudl/config"
	"github.com/silverfox-dev/boorudl/downloader"
)

func main() {
	log.SetFlags(0)
	log.SetOutput(colorable.NewColorableStderr())

	flag.Parse()
	applyConfig()

	if help || flag.NArg() == 0 {
		usage()
		if help {
			return
		}
		os.Exit(1)
	}

	site, err := booru.ParseSite(imageboard)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	args := flag.Args()
	command, rest := args[0], args[1:]

	if command == "save-key" {
		if len(rest) != 1 {
			log.Fatalf("error: save-key takes exactly one api key")
		}
		if err := config.StoreKey(site, rest[0]); err != nil {
			log.Fatalf("error: store key: %v", err)
		}
		log.Printf("api key for %s stored", site)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options, err := buildOptions(site, command, rest)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	pipeline, err := boorudl.New(options...)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	start := time.Now()
	snap, runErr := pipeline.Run(ctx)

	colored := term.IsTerminal(int(os.Stderr.Fd()))
	log.Print(snap.Report(colored))
	if runErr != nil {
		log.Fatalf("error: %v", runErr)
	}
	log.Printf("done in %s", time.Since(start).Round(time.Second))
}

func buildOptions(site booru.Site, command string, rest []string) ([]boorudl.Option, error) {
	options := []boorudl.Option{
		boorudl.WithSite(site),
		boorudl.WithOutput(output),
		boorudl.WithSafeMode(safeMode),
		boorudl.WithUpdate(update),
		boorudl.WithCBZ(cbz),
		boorudl.WithStartPage(startPage),
		boorudl.WithLimit(limit),
		boorudl.WithLog(log.Default()),
	}

	switch command {
	case "search":
		if len(rest) == 0 {
			return nil, fmt.Errorf("search needs at least one tag")
		}
		options = append(options, boorudl.WithTags(rest...))
	case "post":
		ids, err := parseIDs(rest)
		if err != nil {
			return nil, err
		}
		options = append(options, boorudl.WithPosts(ids...))
	case "pool":
		if len(rest) != 1 {
			return nil, fmt.Errorf("pool takes exactly one id")
		}
		ids, err := parseIDs(rest)
		if err != nil {
			return nil, err
		}
		options = append(options, boorudl.WithPool(ids[0]))
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}

	client, err := downloader.NewClient(proxy)
	if err != nil {
		return nil, err
	}
	options = append(options, boorudl.WithClient(client))

	if !disableBlacklist {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		blacklist, err := config.LoadBlacklist(dir)
		if err != nil {
			return nil, err
		}
		options = append(options, boorudl.WithBlacklists(blacklist.GlobalTags(), blacklist.ForSite(site)))
	}

	var cred booru.Credential
	if dir, err := config.Dir(); err == nil {
		auth, err := config.LoadAuth(dir)
		if err != nil {
			return nil, err
		}
		cred = auth.Credential(site)
	}
	if requireAuth && cred.Anonymous() {
		return nil, fmt.Errorf("--auth given but no credentials configured for %s, edit auth.toml or run save-key", site)
	}
	options = append(options, boorudl.WithAuth(cred))

	dlOptions := []downloader.DownloadOption{
		downloader.MaxConcurrent(simultaneous),
		downloader.Retry(retry),
		downloader.UseID(useID),
		downloader.Annotate(annotate),
	}
	if rateLimit > 0 {
		dlOptions = append(dlOptions, downloader.RateLimit(rateLimit))
	}
	options = append(options, boorudl.WithDownloadOptions(dlOptions...))

	return options, nil
}

func parseIDs(args []string) ([]uint64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no post ids given")
	}
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid post id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
