package domain

import (
	"regexp"
	"slices"
)

// Keys seeded by the transport for every request.
const (
	KeyRequestID     = "requestId"
	KeyCorrelationID = "correlationId"
	KeyTraceID       = "traceId"
)

// MaxKeyLength bounds client supplied keys.
const MaxKeyLength = 64

var keyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// ReservedKeys returns the keys that only the transport may write.
func ReservedKeys() []string {
	return []string{KeyRequestID, KeyCorrelationID, KeyTraceID}
}

// IsReserved reports whether key is owned by the transport.
func IsReserved(key string) bool {
	return slices.Contains(ReservedKeys(), key)
}

// ValidateKey checks that a client may write key.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return NewValidationError("key", "must not be empty")
	case len(key) > MaxKeyLength:
		return NewValidationError("key", "must be at most 64 characters")
	case !keyPattern.MatchString(key):
		return NewValidationError("key", "must start with a letter and contain only letters, digits, '_', '.' or '-'")
	case IsReserved(key):
		return NewValidationError("key", "is reserved")
	}

	return nil
}
