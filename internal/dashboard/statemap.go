// Package dashboard turns parsed LINSTOR metric families into dashboard data.
package dashboard

import (
	"strings"

	"github.com/and161185/linstor-dashboard/model"
)

// BuildStateMap decodes an enum-style help string such as
// `0="OFFLINE", 1="ONLINE"` into a code -> lowercased label map.
// Segments without a key/value split are dropped.
func BuildStateMap(help string) model.StateMap {
	stateMap := make(model.StateMap)

	for _, segment := range strings.Split(help, ",") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		key = trimQuoted(key)
		if key == "" {
			continue
		}
		stateMap[key] = strings.ToLower(trimQuoted(value))
	}

	return stateMap
}

func trimQuoted(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
