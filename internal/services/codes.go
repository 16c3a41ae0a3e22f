package services

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxCodeAttempts = 10

// GenerateReadableCode creates a short, readable code from input data
// Uses only clear characters (no O/0/I/1/L) - format: XX-YYY
func GenerateReadableCode(seed string) string {
	const chars = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

	hash := sha256.Sum256([]byte(seed))
	num := binary.BigEndian.Uint64(hash[:8])

	code := make([]byte, 5)
	for i := 0; i < 5; i++ {
		code[i] = chars[num%uint64(len(chars))]
		num /= uint64(len(chars))
	}

	return fmt.Sprintf("%s-%s", string(code[:2]), string(code[2:]))
}

// newReadableCode returns a random readable code for joins and invites
func newReadableCode() string {
	return GenerateReadableCode(uuid.NewString())
}

// newSessionCode returns an opaque 10-character token for anonymous voters
func newSessionCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
