// Package token generates the random strings used as credentials: email
// verification codes, device keys and passes, broker topic names and broker
// credentials.
//
// All values are drawn from crypto/rand. A bad alphabet or length is a
// programming error and panics.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabets used by the credential profiles.
const (
	Lowercase    = "abcdefghijklmnopqrstuvwxyz"
	Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Profile lengths.
const (
	VerificationTokenLength = 5
	DeviceKeyLength         = 20
	DeviceKeyGroupSize      = 4
	DeviceKeySeparator      = "-"
	DevicePassLength        = 10
	TopicNameLength         = 50
	BrokerCredentialLength  = 30
)

// Generate returns length characters sampled uniformly from alphabet.
// When groupSize is positive, separator is inserted after every groupSize
// characters except after the last one.
func Generate(alphabet string, length int, separator string, groupSize int) string {
	if alphabet == "" {
		panic("token: empty alphabet")
	}
	if length <= 0 {
		panic(fmt.Sprintf("token: non-positive length %d", length))
	}
	if groupSize < 0 {
		panic(fmt.Sprintf("token: negative group size %d", groupSize))
	}

	symbols := []rune(alphabet)
	size := big.NewInt(int64(len(symbols)))

	var b strings.Builder
	b.Grow(length + len(separator)*groupCount(length, groupSize))

	for i := 0; i < length; i++ {
		if groupSize > 0 && i > 0 && i%groupSize == 0 {
			b.WriteString(separator)
		}
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(fmt.Sprintf("token: reading random source: %v", err))
		}
		b.WriteRune(symbols[n.Int64()])
	}

	return b.String()
}

// groupCount is the number of separators Generate inserts.
func groupCount(length, groupSize int) int {
	if groupSize <= 0 {
		return 0
	}
	return (length - 1) / groupSize
}

// VerificationToken returns a short, human-typeable email verification code.
func VerificationToken() string {
	return Generate(Lowercase, VerificationTokenLength, "", 0)
}

// DeviceKey returns a device registration key such as "Ab3d-9KxQ-p0Lm-ZZ12-qwer".
func DeviceKey() string {
	return Generate(Alphanumeric, DeviceKeyLength, DeviceKeySeparator, DeviceKeyGroupSize)
}

// DevicePass returns a device password.
func DevicePass() string {
	return Generate(Alphanumeric, DevicePassLength, "", 0)
}

// TopicName returns a broker topic identifier for a controllable.
func TopicName() string {
	return Generate(Alphanumeric, TopicNameLength, "", 0)
}

// BrokerCredential returns a broker username or password.
func BrokerCredential() string {
	return Generate(Alphanumeric, BrokerCredentialLength, "", 0)
}
