package utils

import "math/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// Error codes returned to clients in JSON bodies alongside HTTP status.
const (
	ErrorTokenAuthFail  = 1001
	ErrorInvalidRequest = 1002
	ErrorInternal       = 1003
)

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RandomAlphabetString generates a random lowercase string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
