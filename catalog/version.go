package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

const snapExt = ".snap"

// Version numbers the snapshots of one array, starting at 1.
type Version uint64

// String returns the zero-padded form used in blob names.
func (v Version) String() string {
	return fmt.Sprintf("%06d", uint64(v))
}

func (v Version) fileName() string {
	return v.String() + snapExt
}

// parseVersion parses a blob base name such as "000042.snap".
func parseVersion(base string) (Version, bool) {
	digits, ok := strings.CutSuffix(base, snapExt)
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return Version(n), true
}
