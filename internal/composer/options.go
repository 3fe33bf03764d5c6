package composer

import "sort"

// Sentinel is the reserved "no selection" option.
const Sentinel = "None"

type optionKey struct {
	library         string
	block           string
	includeSentinel bool
}

// Options returns the sorted option names of block in libraryID, optionally
// prefixed with the sentinel. Unknown libraries yield only the sentinel.
// Results are memoised; the libraries never change after load.
func (c *Composer) Options(libraryID, block string, includeSentinel bool) []string {
	key := optionKey{library: libraryID, block: block, includeSentinel: includeSentinel}

	c.optMu.RLock()
	cached, ok := c.optCache[key]
	c.optMu.RUnlock()
	if ok {
		return append([]string(nil), cached...)
	}

	var opts []string
	if includeSentinel {
		opts = append(opts, Sentinel)
	}
	if lib, ok := c.libs[libraryID]; ok {
		opts = append(opts, lib.Options(block)...)
	}
	if opts == nil {
		opts = []string{}
	}

	c.optMu.Lock()
	if existing, ok := c.optCache[key]; ok {
		opts = existing
	} else {
		c.optCache[key] = opts
	}
	c.optMu.Unlock()

	return append([]string(nil), opts...)
}

// LibraryNames returns the loaded library ids in sorted order.
func (c *Composer) LibraryNames() []string {
	names := make([]string, 0, len(c.libs))
	for name := range c.libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateSelection reports whether option exists in block of libraryID.
func (c *Composer) ValidateSelection(libraryID, block, option string) bool {
	lib, ok := c.libs[libraryID]
	if !ok {
		return false
	}
	opts, ok := lib.Blocks[block]
	if !ok {
		return false
	}
	_, ok = opts[option]
	return ok
}
