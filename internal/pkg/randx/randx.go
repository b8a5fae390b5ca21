/*
Package randx provides functions for generating cryptographically secure random
identifiers.

It generates the temporary connection ids assigned to sockets before
registration.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// TempConnectionPrefix is the reserved prefix for pre-registration connection ids.
	// Nicknames carrying this prefix are rejected at registration so a real nickname
	// can never collide with an unregistered connection.
	TempConnectionPrefix = "temp_"

	// TempConnectionRawLength is the fixed length of the Base62 part of a
	// temporary connection id.
	TempConnectionRawLength = 8
)

// base62String generates a Base62 string of the given length using crypto/rand.
func base62String(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// TempConnectionID generates the id assigned to a freshly accepted connection,
// valid until the connection registers a nickname.
func TempConnectionID() (string, error) {
	raw, err := base62String(TempConnectionRawLength)
	if err != nil {
		return "", err
	}

	return TempConnectionPrefix + raw, nil
}

// IsTempConnectionID reports whether the given id uses the reserved
// temporary-connection naming scheme.
func IsTempConnectionID(id string) bool {
	return strings.HasPrefix(id, TempConnectionPrefix)
}
