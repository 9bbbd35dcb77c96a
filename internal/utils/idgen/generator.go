// Package idgen generates the opaque identifiers used across guidechat.
package idgen

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewConversationID returns a unique conversation identifier combining a
// time-based component (millisecond epoch in base36) with a random one, so
// IDs sort roughly by creation time and never collide in practice.
func NewConversationID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("conv_%s%s", strconv.FormatInt(time.Now().UnixMilli(), 36), random)
}

// NewRequestID returns an identifier for correlating one backend request
// across log lines.
func NewRequestID() string {
	id, err := GenerateSecureID("req", 16)
	if err != nil {
		// crypto/rand failure is unrecoverable for anything else the
		// process does; fall back to a uuid which cannot fail.
		return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}
	return id
}

// GenerateSecureID returns "<prefix>_<random>" where random is length
// characters drawn from [0-9a-z] using crypto/rand.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = idCharset[int(b)%len(idCharset)]
	}

	return prefix + "_" + string(out), nil
}
