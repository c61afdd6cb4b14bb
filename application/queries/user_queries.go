package queries

import (
	"time"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/pkg/utils"
)

// GetUserQuery represents a query to get a single user
type GetUserQuery struct {
	UserID string `json:"id" validate:"required"`
}

// Validate validates the GetUserQuery
func (q GetUserQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListUsersQuery represents a query for every user
type ListUsersQuery struct{}

// Validate validates the ListUsersQuery
func (q ListUsersQuery) Validate() error {
	return nil
}

// GetFriendsByDegreeQuery asks for the users at exactly Degree hops from UserID
type GetFriendsByDegreeQuery struct {
	UserID string `json:"id" validate:"required"`
	Degree int    `json:"degree"`
}

// Validate validates the GetFriendsByDegreeQuery
func (q GetFriendsByDegreeQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	_, err := valueobjects.NewDegree(q.Degree)
	return err
}

// UserView is the read model returned for a user
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserView converts a user entity to its read model
func NewUserView(u *entities.User) UserView {
	return UserView{
		ID:        u.ID().String(),
		Name:      u.Name(),
		Email:     u.Email(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

// NewUserViews converts users preserving their order. The result is never nil.
func NewUserViews(users []*entities.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return views
}
