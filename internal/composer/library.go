package composer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kayz/modprompt/internal/logger"
)

// Library is one content pack: block name -> option name -> text.
type Library struct {
	ID     string                       `yaml:"-" json:"-"`
	Blocks map[string]map[string]string `yaml:"blocks" json:"blocks"`
}

// Text returns the literal text for an option, or "" when missing.
func (l *Library) Text(block, option string) string {
	if l == nil {
		return ""
	}
	return l.Blocks[block][option]
}

// Options returns the sorted option names of a block.
func (l *Library) Options(block string) []string {
	if l == nil {
		return nil
	}
	opts := make([]string, 0, len(l.Blocks[block]))
	for name := range l.Blocks[block] {
		opts = append(opts, name)
	}
	sort.Strings(opts)
	return opts
}

var libraryExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// LoadLibraries loads every library file found directly in dir.
// A missing or empty directory yields an empty map. Files are visited in
// lexicographic order so a duplicate id always resolves to the same file.
func LoadLibraries(dir string) (map[string]*Library, error) {
	libs := make(map[string]*Library)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return libs, nil
		}
		return nil, fmt.Errorf("list libraries %s: %w", dir, err)
	}

	// os.ReadDir already sorts by file name.
	sources := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !libraryExtensions[strings.ToLower(ext)] {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		fullPath := filepath.Join(dir, name)

		lib, err := loadLibrary(fullPath)
		if err != nil {
			logger.Warn("Library file unreadable, skipping: %s: %v", fullPath, err)
			continue
		}
		lib.ID = id

		if prev, ok := sources[id]; ok {
			logger.Warn("Duplicate library id %q: %s replaces %s", id, name, prev)
		}
		for other, src := range sources {
			if other != id && strings.EqualFold(other, id) {
				logger.Warn("Library ids %q (%s) and %q (%s) differ only by case", other, src, id, name)
			}
		}
		sources[id] = name
		libs[id] = lib
	}

	return libs, nil
}

func loadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lib Library
	if err := decodeDocument(path, data, &lib); err != nil {
		return nil, err
	}
	if lib.Blocks == nil {
		lib.Blocks = map[string]map[string]string{}
	}
	return &lib, nil
}
