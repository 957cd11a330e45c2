package internal

import (
	"fmt"
	"strings"
)

// Hexdump formats the first limit bytes of b as space-separated hex
// pairs, appending an ellipsis when b is longer.
func Hexdump(b []byte, limit int) string {
	truncated := false
	if limit > 0 && len(b) > limit {
		b = b[:limit]
		truncated = true
	}

	var sb strings.Builder
	for n, c := range b {
		if n > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	if truncated {
		sb.WriteString(" ...")
	}
	return sb.String()
}
