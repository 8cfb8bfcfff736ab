package service

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateInfluencerID derives the display-only influencer number from a CPF
// and a millisecond timestamp. The result always matches XXXX-XX.
//
// This is NOT a cryptographic or collision-resistant identifier. It is a
// display decoration with no uniqueness guarantee; existing cards depend on
// the exact derivation, so do not strengthen it without a requirements
// change.
//
// Time is an explicit parameter so the function stays pure and testable.
func GenerateInfluencerID(cpf string, nowMillis int64) string {
	cleaned := digitsOnly(cpf)
	if len(cleaned) < 11 {
		cleaned = strings.Repeat("0", 11-len(cleaned)) + cleaned
	}

	// Middle 6 digits of the CPF and last 6 digits of the timestamp seed the
	// calculation; the prime multiplier mixes them.
	cpfSeed, _ := strconv.ParseInt(cleaned[3:9], 10, 64)

	millis := strconv.FormatInt(nowMillis, 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	timeSeed, _ := strconv.ParseInt(millis, 10, 64)

	combined := (cpfSeed + timeSeed) * 31

	// Constrain to [100000, 999999] so the rendered id has a fixed width.
	sixDigit := combined%900000 + 100000

	id := strconv.FormatInt(sixDigit, 10)
	return fmt.Sprintf("%s-%s", id[0:4], id[4:6])
}
