package capture

import (
	"fmt"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRootID names the root document when its URL has no path.
const DefaultRootID = "index.html"

// DefaultCacheSize bounds the URL → id memo.
const DefaultCacheSize = 4096

// Namer maps resource and frame URLs to resource identifiers.
//
// URLs under the base are reduced to their path relative to it; a URL equal
// to the base maps to the bound root document's id, which is DefaultRootID
// (or the configured root id) when the root is the base itself. URLs on
// other origins are kept verbatim. An empty URL, which DevTools reports for
// inline document scripts, maps to the root document's id.
//
// Initiator stacks repeat the same few URLs thousands of times, so results
// are memoised.
type Namer struct {
	base   string
	rootID string
	root   string // id of the bound root document
	cache  *lru.Cache[string, string]
}

// NewNamer creates a Namer. An empty base is derived from the root document
// URL by BindRoot; an empty rootID defaults to DefaultRootID.
func NewNamer(base, rootID string, cacheSize int) (*Namer, error) {
	if rootID == "" {
		rootID = DefaultRootID
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("namer cache: %w", err)
	}
	return &Namer{base: base, rootID: rootID, root: rootID, cache: cache}, nil
}

// MustNamer is like NewNamer but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNamer(base, rootID string) *Namer {
	n, err := NewNamer(base, rootID, 0)
	if err != nil {
		panic(err)
	}
	return n
}

// BindRoot records the root document URL. When no base was configured the
// base becomes the root's origin ("scheme://host/"). Returns the root id.
func (n *Namer) BindRoot(rootURL string) string {
	if n.base == "" {
		n.base = originOf(rootURL)
	}
	n.cache.Purge()
	// the base itself names the root; reset before resolving
	n.root = n.rootID
	n.root = n.name(rootURL)
	return n.root
}

// Base returns the URL prefix stripped from identifiers.
func (n *Namer) Base() string { return n.base }

// RootID returns the id of the bound root document.
func (n *Namer) RootID() string { return n.root }

// ID maps a URL to a resource identifier.
func (n *Namer) ID(rawURL string) string {
	if rawURL == "" {
		return n.root
	}
	if id, ok := n.cache.Get(rawURL); ok {
		return id
	}
	id := n.name(rawURL)
	n.cache.Add(rawURL, id)
	return id
}

func (n *Namer) name(rawURL string) string {
	if n.base == "" {
		return rawURL
	}
	if rawURL+"/" == n.base {
		return n.root
	}
	if !strings.HasPrefix(rawURL, n.base) {
		return rawURL
	}
	rest := strings.TrimPrefix(rawURL, n.base)
	if rest == "" {
		return n.root
	}
	return rest
}

// originOf returns "scheme://host/" for absolute URLs and "" otherwise.
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
