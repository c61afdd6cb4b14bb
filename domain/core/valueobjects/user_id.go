package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// UserID is a value object representing a user identifier.
// Generated ids are UUIDs; ids loaded from a store are accepted as opaque strings.
type UserID struct {
	value string
}

// NewUserID creates a new random UserID
func NewUserID() UserID {
	return UserID{value: uuid.New().String()}
}

// NewUserIDFromString creates a UserID from an existing string
func NewUserIDFromString(id string) (UserID, error) {
	if strings.TrimSpace(id) == "" {
		return UserID{}, errors.New("user ID cannot be empty")
	}
	return UserID{value: id}, nil
}

// MustUserID is NewUserIDFromString for ids known to be valid
func MustUserID(id string) UserID {
	userID, err := NewUserIDFromString(id)
	if err != nil {
		panic(err)
	}
	return userID
}

// String returns the string representation of the UserID
func (id UserID) String() string {
	return id.value
}

// Equals checks if two UserIDs are equal
func (id UserID) Equals(other UserID) bool {
	return id.value == other.value
}

// IsZero checks if the UserID is the zero value
func (id UserID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler
func (id UserID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *UserID) UnmarshalText(data []byte) error {
	parsed, err := NewUserIDFromString(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
