package booru

// Filter is the per-post rejection chain applied between parsing and
// the queue. The first matching rule wins; order matters and is fixed:
// rating policy, global blacklist, site blacklist, updater cutoff,
// URL presence.
type Filter struct {
	safeMode bool
	global   map[string]struct{}
	site     map[string]struct{}
	cutoff   uint64

	removed uint64
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// SafeMode rejects everything that is not RatingSafe.
func SafeMode(on bool) FilterOption {
	return func(f *Filter) { f.safeMode = on }
}

// GlobalBlacklist sets the tags excluded on every site.
func GlobalBlacklist(tags []string) FilterOption {
	return func(f *Filter) { f.global = tagSet(tags) }
}

// SiteBlacklist sets the tags excluded on the active site only.
func SiteBlacklist(tags []string) FilterOption {
	return func(f *Filter) { f.site = tagSet(tags) }
}

// Cutoff rejects posts with id at or below the previous run's highest
// id, enabling incremental updates.
func Cutoff(highestID uint64) FilterOption {
	return func(f *Filter) { f.cutoff = highestID }
}

func NewFilter(options ...FilterOption) *Filter {
	f := &Filter{
		global: map[string]struct{}{},
		site:   map[string]struct{}{},
	}
	for _, option := range options {
		option(f)
	}
	return f
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// Accept reports whether the post survives the chain.
func (f *Filter) Accept(p Post) bool {
	switch {
	case f.safeMode && p.Rating != RatingSafe:
	case p.HasAnyTag(f.global):
	case p.HasAnyTag(f.site):
	case f.cutoff > 0 && p.ID <= f.cutoff:
	case p.URL == "":
		// Deleted or login-gated media has no downloadable URL.
	default:
		return true
	}
	f.removed++
	return false
}

// Removed is the number of posts the chain rejected so far.
func (f *Filter) Removed() uint64 { return f.removed }
