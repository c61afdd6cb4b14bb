// Package neo4j stores users as (:User) nodes and each directed edge as a
// (friend)-[:FRIEND_OF]->(owner) relationship.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

const constraintFailedCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

const userFields = `u.id AS id, u.name AS name, u.email AS email, u.createdAt AS createdAt, u.updatedAt AS updatedAt`

// Compile-time interface check
var _ ports.Store = (*Store)(nil)

// Store implements ports.Store on Neo4j
type Store struct {
	client Client
	logger *zap.Logger
}

// NewStore creates a store over client
func NewStore(client Client, logger *zap.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// EnsureSchema creates the uniqueness constraints if they don't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		`CREATE CONSTRAINT user_email_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
	}
	for _, stmt := range statements {
		if _, err := s.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating constraint: %w", err)
		}
	}
	return nil
}

// Create stores a new user node
func (s *Store) Create(ctx context.Context, user *entities.User) error {
	_, err := s.client.ExecuteWrite(ctx,
		`CREATE (u:User {id: $id, name: $name, email: $email, createdAt: $createdAt, updatedAt: $updatedAt})`,
		userParams(user),
	)
	if err != nil {
		return s.translate("create_user", err)
	}
	return nil
}

// List returns every user ordered by creation time, then id
func (s *Store) List(ctx context.Context) ([]*entities.User, error) {
	res, err := s.client.ExecuteRead(ctx,
		`MATCH (u:User) RETURN `+userFields+` ORDER BY u.createdAt, u.id`, nil)
	if err != nil {
		return nil, s.translate("list_users", err)
	}
	users, err := usersFrom(res)
	if err != nil {
		return nil, s.translate("list_users", err)
	}
	return users, nil
}

// GetByID retrieves a user node
func (s *Store) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	res, err := s.client.ExecuteRead(ctx,
		`MATCH (u:User {id: $id}) RETURN `+userFields,
		map[string]any{"id": id.String()},
	)
	if err != nil {
		return nil, s.translate("get_user", err)
	}
	if len(res.Records) == 0 {
		return nil, pkgerrors.NewUserNotFoundError(id.String())
	}
	user, err := userFrom(res.Records[0])
	if err != nil {
		return nil, s.translate("get_user", err)
	}
	return user, nil
}

// Update persists the user's profile
func (s *Store) Update(ctx context.Context, user *entities.User) error {
	res, err := s.client.ExecuteWrite(ctx,
		`MATCH (u:User {id: $id}) SET u.name = $name, u.email = $email, u.updatedAt = $updatedAt RETURN u.id AS id`,
		userParams(user),
	)
	if err != nil {
		return s.translate("update_user", err)
	}
	if len(res.Records) == 0 {
		return pkgerrors.NewUserNotFoundError(user.ID().String())
	}
	return nil
}

// Delete detaches and removes the user node
func (s *Store) Delete(ctx context.Context, id valueobjects.UserID) error {
	res, err := s.client.ExecuteWrite(ctx,
		`MATCH (u:User {id: $id}) WITH u, u.id AS id DETACH DELETE u RETURN id`,
		map[string]any{"id": id.String()},
	)
	if err != nil {
		return s.translate("delete_user", err)
	}
	if len(res.Records) == 0 {
		return pkgerrors.NewUserNotFoundError(id.String())
	}
	return nil
}

// SaveEdges creates every relationship in one transaction
func (s *Store) SaveEdges(ctx context.Context, edges ...entities.Friendship) error {
	err := s.client.ExecuteWriteTx(ctx, func(run RunFunc) error {
		for _, e := range edges {
			params := edgeParams(e)

			res, err := run(`
				OPTIONAL MATCH (f:User {id: $friendId})
				OPTIONAL MATCH (o:User {id: $friendOfId})
				OPTIONAL MATCH (f)-[r:FRIEND_OF]->(o)
				RETURN f IS NOT NULL AS friendExists, o IS NOT NULL AS ownerExists, r IS NOT NULL AS edgeExists`,
				params)
			if err != nil {
				return err
			}
			if len(res.Records) == 0 {
				return pkgerrors.NewUserNotFoundError(e.FriendOfID().String())
			}

			rec := res.Records[0]
			switch {
			case !boolField(rec, "ownerExists"):
				return pkgerrors.NewUserNotFoundError(e.FriendOfID().String())
			case !boolField(rec, "friendExists"):
				return pkgerrors.NewUserNotFoundError(e.FriendID().String())
			case boolField(rec, "edgeExists"):
				return pkgerrors.NewConflictError("friendship already exists").
					WithCode(pkgerrors.CodeFriendshipExists).
					WithDetails(map[string]interface{}{
						"friendId":   e.FriendID().String(),
						"friendOfId": e.FriendOfID().String(),
					})
			}

			if _, err := run(`
				MATCH (f:User {id: $friendId}), (o:User {id: $friendOfId})
				CREATE (f)-[:FRIEND_OF]->(o)`,
				params); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.translate("save_friendship", err)
	}
	return nil
}

// DeleteEdges removes every relationship in one transaction
func (s *Store) DeleteEdges(ctx context.Context, edges ...entities.Friendship) error {
	err := s.client.ExecuteWriteTx(ctx, func(run RunFunc) error {
		for _, e := range edges {
			res, err := run(`
				MATCH (:User {id: $friendId})-[r:FRIEND_OF]->(:User {id: $friendOfId})
				WITH r DELETE r RETURN 1 AS deleted`,
				edgeParams(e))
			if err != nil {
				return err
			}
			if len(res.Records) == 0 {
				return pkgerrors.NewFriendshipNotFoundError(e.FriendID().String(), e.FriendOfID().String())
			}
		}
		return nil
	})
	if err != nil {
		return s.translate("delete_friendship", err)
	}
	return nil
}

// FriendIDsOf follows incoming FRIEND_OF relationships of every id
func (s *Store) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	res, err := s.client.ExecuteRead(ctx, `
		UNWIND $ids AS ownerId
		MATCH (f:User)-[:FRIEND_OF]->(:User {id: ownerId})
		RETURN f.id AS friendId`,
		map[string]any{"ids": idStrings(ids)},
	)
	if err != nil {
		return nil, s.translate("friend_ids_of", err)
	}

	out := make([]valueobjects.UserID, 0, len(res.Records))
	for _, rec := range res.Records {
		id, err := valueobjects.NewUserIDFromString(stringField(rec, "friendId"))
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// UsersByIDs returns the known users among ids, ascending by id
func (s *Store) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	res, err := s.client.ExecuteRead(ctx,
		`MATCH (u:User) WHERE u.id IN $ids RETURN `+userFields+` ORDER BY u.id`,
		map[string]any{"ids": idStrings(ids)},
	)
	if err != nil {
		return nil, s.translate("users_by_ids", err)
	}
	users, err := usersFrom(res)
	if err != nil {
		return nil, s.translate("users_by_ids", err)
	}
	return users, nil
}

// Ping verifies connectivity to the database
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.VerifyConnectivity(ctx); err != nil {
		return pkgerrors.NewUnavailableError("neo4j").WithCause(err)
	}
	return nil
}

// Close closes the driver
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// translate maps driver errors onto the application error taxonomy
func (s *Store) translate(operation string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintFailedCode {
		if strings.Contains(neoErr.Msg, "email") {
			return pkgerrors.NewUniqueConstraintError("email")
		}
		return pkgerrors.NewConflictError("user already exists")
	}

	if neo4j.IsConnectivityError(err) {
		return pkgerrors.NewUnavailableError("neo4j").WithCause(err)
	}

	s.logger.Error("Neo4j operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return pkgerrors.FromStorage(operation, err)
}

func userParams(user *entities.User) map[string]any {
	return map[string]any{
		"id":        user.ID().String(),
		"name":      user.Name(),
		"email":     user.Email(),
		"createdAt": formatTime(user.CreatedAt()),
		"updatedAt": formatTime(user.UpdatedAt()),
	}
}

func edgeParams(e entities.Friendship) map[string]any {
	return map[string]any{
		"friendId":   e.FriendID().String(),
		"friendOfId": e.FriendOfID().String(),
	}
}

func usersFrom(res Result) ([]*entities.User, error) {
	users := make([]*entities.User, 0, len(res.Records))
	for _, rec := range res.Records {
		user, err := userFrom(rec)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func userFrom(rec Record) (*entities.User, error) {
	id, err := valueobjects.NewUserIDFromString(stringField(rec, "id"))
	if err != nil {
		return nil, fmt.Errorf("stored user id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, stringField(rec, "createdAt"))
	if err != nil {
		return nil, fmt.Errorf("parsing createdAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, stringField(rec, "updatedAt"))
	if err != nil {
		return nil, fmt.Errorf("parsing updatedAt: %w", err)
	}
	return entities.ReconstructUser(id, stringField(rec, "name"), stringField(rec, "email"), createdAt, updatedAt), nil
}

func stringField(rec Record, key string) string {
	s, _ := rec[key].(string)
	return s
}

func boolField(rec Record, key string) bool {
	b, _ := rec[key].(bool)
	return b
}

func idStrings(ids []valueobjects.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// formatTime is fixed width so that ORDER BY on the stored string follows time order
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
