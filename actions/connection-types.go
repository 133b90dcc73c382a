package actions

import (
	"sort"
	"strings"

	"github.com/wbxdata/replipipe/constants"
)

// IsSupportedConnectionType returns true if t is a source or target type in ActionFuncs.
func IsSupportedConnectionType(t string) bool {
	for _, command := range ActionFuncs {
		for k := range command {
			src, tgt := splitActionKey(k)
			if t == src || t == tgt {
				return true
			}
		}
	}
	return false
}

// GetSupportedReplicateConnectionTypes returns the sorted <source>-<target> pairs, one per line.
func GetSupportedReplicateConnectionTypes() string {
	s := make([]string, 0)
	for k := range ActionFuncs[constants.ActionFuncsCommandReplicate] {
		s = append(s, "  "+k)
	}
	sort.Strings(s)
	return strings.Join(s, "\n")
}

func splitActionKey(k string) (src string, tgt string) {
	i := strings.Index(k, "-")
	if i < 0 {
		return k, ""
	}
	return k[:i], k[i+1:]
}
