// Package decode holds the format capabilities shared by every source
// driver: JSON tree access, CSV streaming, Excel multi-sheet reading,
// HTML DOM selection, and PDF-to-text extraction. Each capability fails
// with a single errs.Decode{Format, Detail}; a driver decides whether
// that failure is fatal or can be tolerated for one sub-pipeline.
package decode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ukgov/org-registry/internal/errs"
)

// JSON parses raw bytes into an untyped tree (map[string]interface{} or
// []interface{} at the root), the same ad-hoc tree-walking shape the
// teacher uses directly in pipeline.go and source_grantsgov.go, just
// pulled out into a reusable entry point.
func JSON(raw []byte) (interface{}, error) {
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, &errs.Decode{Format: "json", Detail: err.Error()}
	}
	return tree, nil
}

// Path walks tree following a dotted, optionally-indexed selector such as
// "data.results[0].name", generalising the teacher's inline
// details["synopsis"].(map[string]interface{}) walking
// (source_grantsgov.go) into the reusable FieldExtractor idiom spec §9
// calls for: a mapper reads as a declaration of paths rather than
// imperative type assertions.
func Path(tree interface{}, path string) (interface{}, bool) {
	cur := tree
	for _, segment := range splitPath(path) {
		if segment.index >= 0 {
			arr, ok := cur.([]interface{})
			if !ok || segment.index >= len(arr) {
				return nil, false
			}
			cur = arr[segment.index]
			continue
		}
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := obj[segment.key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// PathString is Path followed by a string type assertion, the common
// case for a mapper reading a scalar field.
func PathString(tree interface{}, path string) (string, bool) {
	v, ok := Path(tree, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

type pathSegment struct {
	key   string
	index int
}

func splitPath(path string) []pathSegment {
	var segments []pathSegment
	for _, raw := range strings.Split(path, ".") {
		key := raw
		for {
			open := strings.IndexByte(key, '[')
			if open < 0 {
				break
			}
			shut := strings.IndexByte(key, ']')
			if shut < 0 || shut < open {
				break
			}
			if open > 0 {
				segments = append(segments, pathSegment{key: key[:open], index: -1})
			}
			idx, err := strconv.Atoi(key[open+1 : shut])
			if err == nil {
				segments = append(segments, pathSegment{index: idx})
			}
			key = key[shut+1:]
		}
		if key != "" {
			segments = append(segments, pathSegment{key: key, index: -1})
		}
	}
	return segments
}

// Field is one declarative extraction rule, the FieldExtractor construct
// from spec §9: a mapper lists (path, required, transform) tuples rather
// than walking the tree imperatively.
type Field struct {
	Path      string
	Required  bool
	Transform func(interface{}) (interface{}, error)
}

// Extract evaluates fields against tree and returns a flat map keyed by
// each field's Path, or an error naming the first missing required
// field.
func Extract(tree interface{}, fields []Field) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		v, ok := Path(tree, f.Path)
		if !ok {
			if f.Required {
				return nil, &errs.Decode{Format: "json", Detail: fmt.Sprintf("required field %q missing", f.Path)}
			}
			continue
		}
		if f.Transform != nil {
			transformed, err := f.Transform(v)
			if err != nil {
				if f.Required {
					return nil, &errs.Decode{Format: "json", Detail: fmt.Sprintf("field %q: %v", f.Path, err)}
				}
				continue
			}
			v = transformed
		}
		out[f.Path] = v
	}
	return out, nil
}
