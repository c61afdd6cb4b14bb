package entities

import (
	"strings"
	"time"

	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"
	pkgerrors "friendship-backend/pkg/errors"
)

// User is a member of the friendship graph
type User struct {
	id        valueobjects.UserID
	name      string
	email     string
	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewUser creates a new user and records a UserCreated event
func NewUser(id valueobjects.UserID, name, email string) (*User, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("user ID cannot be empty")
	}
	name, email, err := normalizeProfile(name, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		id:        id,
		name:      name,
		email:     email,
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}
	user.addEvent(events.NewUserCreated(id, name, email, now))

	return user, nil
}

// ReconstructUser rebuilds a user from stored data with preserved timestamps
func ReconstructUser(id valueobjects.UserID, name, email string, createdAt, updatedAt time.Time) *User {
	return &User{
		id:        id,
		name:      name,
		email:     email,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}
}

// ID returns the user's identifier
func (u *User) ID() valueobjects.UserID {
	return u.id
}

// Name returns the user's display name
func (u *User) Name() string {
	return u.name
}

// Email returns the user's email address
func (u *User) Email() string {
	return u.email
}

// CreatedAt returns when the user was created
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last changed
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// UpdateProfile applies the non-nil fields. A patch that changes nothing
// leaves updatedAt untouched and records no event.
func (u *User) UpdateProfile(name, email *string) error {
	changed := []string{}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return pkgerrors.NewValidationError("name cannot be empty")
		}
		if trimmed != u.name {
			u.name = trimmed
			changed = append(changed, "name")
		}
	}

	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			return pkgerrors.NewValidationError("email cannot be empty")
		}
		if trimmed != u.email {
			u.email = trimmed
			changed = append(changed, "email")
		}
	}

	if len(changed) == 0 {
		return nil
	}

	u.updatedAt = time.Now().UTC()
	u.addEvent(events.NewUserUpdated(u.id, changed, u.updatedAt))
	return nil
}

// MarkDeleted records that the user has been removed
func (u *User) MarkDeleted() {
	u.addEvent(events.NewUserDeleted(u.id, u.email, time.Now().UTC()))
}

// GetUncommittedEvents returns events that haven't been published yet
func (u *User) GetUncommittedEvents() []events.DomainEvent {
	return u.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (u *User) MarkEventsAsCommitted() {
	u.events = []events.DomainEvent{}
}

func (u *User) addEvent(event events.DomainEvent) {
	u.events = append(u.events, event)
}

func normalizeProfile(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return "", "", pkgerrors.NewValidationError("name cannot be empty")
	}
	if email == "" {
		return "", "", pkgerrors.NewValidationError("email cannot be empty")
	}
	return name, email, nil
}
