package utils

import (
	"strconv"
	"strings"
)

// ParseID converts a positive decimal id, returns 0 if invalid
func ParseID(s string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
