package rules

import (
	"strings"
)

// Resolve walks a dotted path like "a.b.c" through nested maps of decoded
// JSON. The boolean distinguishes an absent path from a present null value;
// every dynamic traversal of form data goes through here.
func Resolve(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
