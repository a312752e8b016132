package feature

import (
	"hash/fnv"
	"strconv"
)

// Bucket maps a user id to a stable value in [0, 100).
//
// The hash is FNV-1a 32-bit over the UTF-8 bytes of the decimal form of
// the id, so the same user always lands in the same bucket across
// processes and restarts. Percentage rollouts, gradual rollouts, and A/B
// group assignment all derive from this single value: a user enabled at
// rollout percentage p stays enabled at every percentage above p.
func Bucket(userID int64) int {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	return int(h.Sum32() % 100)
}
