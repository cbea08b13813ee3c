package sexpr

import (
	"fmt"
	"sort"
	"strings"
)

// CacheMode selects how evaluation results are memoized within one run.
type CacheMode int

const (
	// CacheIdentity keys results by node identity and frame contents. Only
	// evaluations that printed nothing and defined nothing are stored, and
	// every define empties the cache.
	CacheIdentity CacheMode = iota
	// CacheContent keys results by the node's source text and frame
	// contents and keeps only truthy results. Distinct nodes with the same
	// text share an entry: the string "x" and the symbol x collide in a
	// frame that binds x.
	CacheContent
	// CacheOff evaluates every node every time.
	CacheOff
)

func (m CacheMode) String() string {
	switch m {
	case CacheIdentity:
		return "identity"
	case CacheContent:
		return "content"
	case CacheOff:
		return "off"
	default:
		return fmt.Sprintf("CacheMode(%d)", int(m))
	}
}

// ParseCacheMode maps a config string onto a CacheMode.
func ParseCacheMode(s string) (CacheMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity":
		return CacheIdentity, nil
	case "content":
		return CacheContent, nil
	case "off", "none":
		return CacheOff, nil
	default:
		return 0, fmt.Errorf("unknown cache mode %q", s)
	}
}

// Frame binds a called function's parameter names to evaluated arguments.
// A nil Frame is the empty top-level frame.
type Frame map[string]Value

func (f Frame) lookup(name string) (Value, bool) {
	v, ok := f[name]
	return v, ok
}

// fingerprint serializes the frame in name order.
func (f Frame) fingerprint() string {
	if len(f) == 0 {
		return ""
	}
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		v := f[name]
		fmt.Fprintf(&b, "%q=%s:%s", name, v.KindName(), v.String())
	}
	return b.String()
}

type cacheKey struct {
	node    int
	content string
	frame   string
}

type cache struct {
	mode    CacheMode
	entries map[cacheKey]Value
	hits    int
}

func newCache(mode CacheMode) *cache {
	return &cache{mode: mode, entries: make(map[cacheKey]Value)}
}

// key builds the fingerprint for n under frame. ok is false when the node
// is not cached in this mode.
func (c *cache) key(n *Node, frame Frame) (cacheKey, bool) {
	switch c.mode {
	case CacheIdentity:
		if n.IsLeaf() {
			return cacheKey{}, false
		}
		return cacheKey{node: n.ID, frame: frame.fingerprint()}, true
	case CacheContent:
		return cacheKey{content: contentOf(n), frame: frame.fingerprint()}, true
	default:
		return cacheKey{}, false
	}
}

// contentOf is the node's literal content: raw text for strings, the
// coerced text for everything else.
func contentOf(n *Node) string {
	if n.Kind == NodeString {
		return n.Text
	}
	return Coerce(n.Text).String()
}

func (c *cache) get(k cacheKey) (Value, bool) {
	v, ok := c.entries[k]
	if ok {
		c.hits++
	}
	return v, ok
}

// put stores v. pure reports that computing v had no observable effect.
func (c *cache) put(k cacheKey, v Value, pure bool) {
	switch c.mode {
	case CacheIdentity:
		if pure {
			c.entries[k] = v
		}
	case CacheContent:
		if v.Truthy() {
			c.entries[k] = v
		}
	}
}

// invalidate runs after a define.
func (c *cache) invalidate() {
	if c.mode == CacheIdentity && len(c.entries) > 0 {
		c.entries = make(map[cacheKey]Value)
	}
}

func (c *cache) reset() {
	c.entries = make(map[cacheKey]Value)
	c.hits = 0
}
