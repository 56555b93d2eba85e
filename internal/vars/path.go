package vars

import (
	"fmt"
	"strconv"
	"strings"
)

// PathError reports a path segment applied to a value of the wrong shape.
type PathError struct {
	Path   string
	Token  string
	Want   string
	Actual string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: segment %s expects %s but found %s", e.Path, e.Token, e.Want, e.Actual)
}

type segment struct {
	key     string
	index   int
	isIndex bool
}

func (s segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return strconv.Quote(s.key)
}

// tokenize splits "items[0].id" into key, index and key segments.
func tokenize(path string) ([]segment, error) {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")
	p = strings.TrimPrefix(p, ".")

	var segs []segment
	var key strings.Builder
	flush := func() {
		if key.Len() > 0 {
			segs = append(segs, segment{key: key.String()})
			key.Reset()
		}
	}

	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index at offset %d", path, i)
			}
			raw := strings.TrimSpace(p[i+1 : i+end])
			idx, err := strconv.Atoi(raw)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("path %q: invalid index %q", path, raw)
			}
			segs = append(segs, segment{index: idx, isIndex: true})
			i += end
		default:
			key.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

// SelectPath walks root (decoded JSON) along path and returns the value found.
// A missing key or an out-of-range index yields nil. Applying an index to a
// non-array, or a key to anything but an object, returns a *PathError.
func SelectPath(root any, path string) (any, error) {
	segs, err := tokenize(path)
	if err != nil {
		return nil, err
	}

	cur := root
	for _, seg := range segs {
		if seg.isIndex {
			arr, ok := cur.([]any)
			if !ok {
				return nil, &PathError{Path: path, Token: seg.String(), Want: "array", Actual: Shape(cur)}
			}
			if seg.index >= len(arr) {
				cur = nil
				continue
			}
			cur = arr[seg.index]
			continue
		}

		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, &PathError{Path: path, Token: seg.String(), Want: "object", Actual: Shape(cur)}
		}
		cur = obj[seg.key]
	}
	return cur, nil
}

// Shape names the JSON kind of v for error messages.
func Shape(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
