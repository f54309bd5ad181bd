// Package metadata resolves acquisition parameters from JSON sidecar files.
// Each logical field is looked up through an ordered list of accepted key
// aliases, first in the run-level sidecar and then, when that is absent or
// silent, in dataset-level sidecars found nearer the dataset root.
package metadata

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Source is one sidecar document. The raw bytes are kept verbatim so the
// labeling-type detector can fall back to scanning the unparsed text.
type Source struct {
	// Path is where the document was loaded from.
	Path string

	raw []byte
}

// LoadSource reads and validates a JSON sidecar.
func LoadSource(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s: invalid JSON", path)
	}
	return &Source{Path: path, raw: raw}, nil
}

// LoadSourceBytes wraps an in-memory JSON document as a source.
func LoadSourceBytes(path string, raw []byte) (*Source, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s: invalid JSON", path)
	}
	return &Source{Path: path, raw: raw}, nil
}

// Raw returns the unparsed document text.
func (s *Source) Raw() string {
	return string(s.raw)
}

// lookup returns the value bound to key, or a non-existent result.
func (s *Source) lookup(key string) gjson.Result {
	return gjson.GetBytes(s.raw, key)
}

// CollectDatasetSources finds dataset-level sidecar candidates under root:
// JSON files whose name mentions "asl", excluding anything below subject
// directories (those are run-level). Candidates are ordered nearer the root
// first, lexically within a level, so the caller can probe them in the
// documented precedence order.
func CollectDatasetSources(root string) ([]*Source, error) {
	type candidate struct {
		path  string
		depth int
	}
	var found []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			// Subject trees hold run-level sidecars; derived data is
			// not a metadata source.
			if strings.HasPrefix(name, "sub-") || name == "derivatives" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".json") || !strings.Contains(strings.ToLower(name), "asl") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		found = append(found, candidate{path: path, depth: strings.Count(rel, string(filepath.Separator))})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].depth != found[j].depth {
			return found[i].depth < found[j].depth
		}
		return found[i].path < found[j].path
	})

	sources := make([]*Source, 0, len(found))
	for _, c := range found {
		src, err := LoadSource(c.path)
		if err != nil {
			// A malformed dataset-level file is skipped, not fatal;
			// later candidates may still resolve the fields.
			continue
		}
		sources = append(sources, src)
	}
	return sources, nil
}
