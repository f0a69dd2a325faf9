package redis

import "fmt"

// Key prefix for all drawguess data
const keyPrefix = "drawguess"

// sessionKey returns the Redis key for a session, addressed by token digest
func sessionKey(digest string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, digest)
}

// sessionScanPattern matches every session key
func sessionScanPattern() string {
	return fmt.Sprintf("%s:session:*", keyPrefix)
}
