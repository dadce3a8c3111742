package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const RedisKeyRateLimitPrefix = "ratelimit"

// RedisKeyGallery keys a cached upstream listing by its request url.
func RedisKeyGallery(url string) string {
	hashed := sha256.Sum256([]byte(url))
	return fmt.Sprintf("gallery:%s", hex.EncodeToString(hashed[:16]))
}

func RedisKeyWarplets(address string) string {
	return fmt.Sprintf("warplets:%s", address)
}
