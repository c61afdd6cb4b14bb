package commands

import (
	"friendship-backend/pkg/utils"
)

// AddFriendshipCommand makes FriendID a friend of UserID, and UserID a friend
// of FriendID when Bidirectional is set.
type AddFriendshipCommand struct {
	UserID        string `json:"userId" validate:"required"`
	FriendID      string `json:"friendId" validate:"required"`
	Bidirectional bool   `json:"bidirectional"`
}

// Validate validates the command
func (cmd AddFriendshipCommand) Validate() error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return err
	}
	return rejectSelfEdge(cmd.UserID, cmd.FriendID)
}

// RemoveFriendshipCommand deletes the edge FriendID -> UserID, and its reverse
// when Bidirectional is set.
type RemoveFriendshipCommand struct {
	UserID        string `json:"userId" validate:"required"`
	FriendID      string `json:"friendId" validate:"required"`
	Bidirectional bool   `json:"bidirectional"`
}

// Validate validates the command
func (cmd RemoveFriendshipCommand) Validate() error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return err
	}
	return rejectSelfEdge(cmd.UserID, cmd.FriendID)
}

func rejectSelfEdge(userID, friendID string) error {
	if userID == friendID {
		return utils.NewFieldValidationError(utils.FieldError{
			Field:   "friendId",
			Rule:    "nefield",
			Message: "friendId must differ from the user id",
		})
	}
	return nil
}
