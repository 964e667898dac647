package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID parses a positive integer identifier from a path or query value.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
