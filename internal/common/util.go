package common

import (
	"strconv"
	"strings"
)

// Batch splits a into two slices. DO NOT write on the returned value.
func Batch[T any](a *[]T, n int) []T {
	if len(*a) > n {
		batch := (*a)[:n]
		*a = (*a)[n:]
		return batch
	}

	b := (*a)
	*a = (*a)[:0]
	return b
}

// FormatFIDs is used in logs.
func FormatFIDs(fids []int64) string {
	s := make([]string, 0, len(fids))
	for _, fid := range fids {
		s = append(s, strconv.FormatInt(fid, 10))
	}

	return strings.Join(s, ",")
}

// AdminRole is the only role allowed on admin endpoints.
const AdminRole = "admin"
