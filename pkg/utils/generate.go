package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/google/uuid"
)

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

// GenerateCheckInToken returns an unguessable opaque token for the QR
// check-in flow. 32 random bytes, hex encoded.
func GenerateCheckInToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a UUID rather than panic in the booking path.
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}

// GenerateOrderID creates a unique order ID with timestamp
func GenerateOrderID() string {
	now := time.Now()

	// Format: BKG-YYYYMMDD-HHMMSS-RANDOM
	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	randomPart := fmt.Sprintf("%04d", mrand.Intn(10000))

	return fmt.Sprintf("BKG-%s-%s-%s", datePart, timePart, randomPart)
}
