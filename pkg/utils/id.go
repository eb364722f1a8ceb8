package utils

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a 12-character random id used to group the log lines of
// one invocation.
func GenerateID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:6])
}

// GenerateTimestampPrefix returns an 8-char hex timestamp followed by an underscore.
// Example: "65cfda3f_"
func GenerateTimestampPrefix() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(time.Now().Unix()))
	return hex.EncodeToString(b) + "_"
}
