package id

import "crypto/rand"

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// Length of the ids handed out by GenerateID.
	Length = 16
	// Bytes at or above this value are redrawn so every character is
	// equally likely.
	cutoff = 256 - 256%len(alphabet)
)

// GenerateID returns a random lowercase alphanumeric id of Length characters.
func GenerateID() string {
	return New(Length)
}

// New returns a random lowercase alphanumeric id of n characters.
func New(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= cutoff {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// Valid reports whether s looks like an id produced by GenerateID.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
