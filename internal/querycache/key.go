package querycache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key is an ordered tuple of primitives naming one request shape,
// for example Key{"product", 3} or Key{"products", "category", "jewelery"}.
type Key []any

// parts returns the canonical JSON form of each element.
func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, v := range k {
		b, err := json.Marshal(v)
		if err != nil {
			out[i] = fmt.Sprintf("%q", fmt.Sprint(v))
			continue
		}
		out[i] = string(b)
	}
	return out
}

// String returns the canonical form used to index the cache.
func (k Key) String() string {
	return "[" + strings.Join(k.parts(), ",") + "]"
}

// HasPrefix reports whether the first len(prefix) elements of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	kp, pp := k.parts(), prefix.parts()
	for i := range pp {
		if kp[i] != pp[i] {
			return false
		}
	}
	return true
}
