package mission

import (
	"path"
	"strings"
)

// PublicURLFunc synthesizes the public URL of a stored object.
type PublicURLFunc func(bucket, path string) (string, error)

// absoluteRefPrefixes mark references that are already resolved.
var absoluteRefPrefixes = []string{"http://", "https://", "data:", "blob:"}

func IsAbsoluteRef(ref string) bool {
	for _, p := range absoluteRefPrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}

// StoragePath places the relative asset reference ref under the mission asset prefix:
//  - refs already under prefix are kept as is
//  - bare file names go to <prefix>/images/<name>
//  - any other path goes to <prefix>/<path>
func StoragePath(prefix, ref string) string {
	prefix = strings.Trim(prefix, "/")
	ref = strings.TrimLeft(ref, "/")

	switch {
	case prefix != "" && strings.HasPrefix(ref, prefix):
		return ref
	case !strings.Contains(ref, "/"):
		return path.Join(prefix, "images", ref)
	default:
		// images/... and assets/... refs land here too
		return path.Join(prefix, ref)
	}
}

// ResolveAssetPaths returns a copy of doc where the known asset fields hold public URLs:
// missionPageImage, intro.image, steps[].image, steps[].blocks[].image and resources[].path.
// Other fields are not scanned, doc itself is never modified.
func ResolveAssetPaths(doc Document, bucket, prefix string, urlFn PublicURLFunc) Document {
	if doc == nil {
		return nil
	}
	out := Document(copyMap(doc))
	resolve := func(obj interface{}, key string) {
		if m, ok := asMap(obj); ok {
			if ref, ok := m[key].(string); ok {
				m[key] = resolveRef(ref, bucket, prefix, urlFn)
			}
		}
	}

	resolve(map[string]interface{}(out), "missionPageImage")
	resolve(out["intro"], "image")
	for _, step := range asSlice(out["steps"]) {
		resolve(step, "image")
		if s, ok := asMap(step); ok {
			for _, block := range asSlice(s["blocks"]) {
				resolve(block, "image")
			}
		}
	}
	for _, res := range asSlice(out["resources"]) {
		resolve(res, "path")
	}
	return out
}

// resolveRef returns the public URL of ref, or ref itself when it needs no resolution or the URL cannot be built.
func resolveRef(ref, bucket, prefix string, urlFn PublicURLFunc) string {
	if ref == "" || IsAbsoluteRef(ref) || urlFn == nil {
		return ref
	}
	u, err := urlFn(bucket, StoragePath(prefix, ref))
	if err != nil || u == "" {
		return ref
	}
	return u
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = copyValue(v)
	}
	return cp
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return copyMap(val)
	case Document:
		return Document(copyMap(val))
	case []interface{}:
		cp := make([]interface{}, len(val))
		for i, item := range val {
			cp[i] = copyValue(item)
		}
		return cp
	default:
		return val
	}
}
