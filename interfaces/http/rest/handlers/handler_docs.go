package handlers

// This file contains OpenAPI annotations for the user and friendship endpoints

// CreateUser creates a new user
// @Summary Create a user
// @Description Creates a user with a generated id. The email must not be taken.
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User to create"
// @Success 201 {object} queries.UserView "Created user"
// @Failure 400 {object} errors.ErrorResponse "Malformed body"
// @Failure 409 {object} errors.ErrorResponse "Email already in use"
// @Failure 422 {object} errors.ErrorResponse "Validation failed"
// @Router /users [post]

// ListUsers lists every user
// @Summary List users
// @Description Returns every user ordered by creation time
// @Tags users
// @Produce json
// @Success 200 {array} queries.UserView "Users"
// @Router /users [get]

// GetUser retrieves a user by id
// @Summary Get a user
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} queries.UserView "User"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{userID} [get]

// UpdateUser changes a user's name or email
// @Summary Update a user
// @Description Applies the fields present in the body. Present fields must not be empty.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} queries.UserView "Updated user"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Failure 409 {object} errors.ErrorResponse "Email already in use"
// @Failure 422 {object} errors.ErrorResponse "Validation failed"
// @Router /users/{userID} [patch]

// DeleteUser removes a user and every friendship it takes part in
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} queries.UserView "Deleted user"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{userID} [delete]

// GetFriends resolves friends at a degree
// @Summary Friends by degree
// @Description Returns the users at exactly the given number of hops, ordered by id
// @Tags friendships
// @Produce json
// @Param userID path string true "User ID"
// @Param degree query int true "Degree (1, 2 or 3)"
// @Success 200 {array} queries.UserView "Users at the degree"
// @Failure 400 {object} errors.ErrorResponse "Invalid degree"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{userID}/friends [get]

// AddFriendship adds a friend
// @Summary Add a friendship
// @Tags friendships
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param request body AddFriendshipRequest true "Friend to add"
// @Success 201 {object} FriendshipResponse "Stored friendship"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Failure 409 {object} errors.ErrorResponse "Friendship exists"
// @Failure 422 {object} errors.ErrorResponse "Validation failed"
// @Router /users/{userID}/friends [post]

// RemoveFriendship removes a friend
// @Summary Remove a friendship
// @Tags friendships
// @Param userID path string true "User ID"
// @Param friendID path string true "Friend ID"
// @Param bidirectional query bool false "Also remove the reverse edge (default true)"
// @Success 204 "Removed"
// @Failure 404 {object} errors.ErrorResponse "Friendship not found"
// @Router /users/{userID}/friends/{friendID} [delete]
