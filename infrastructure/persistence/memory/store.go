package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// Compile-time interface check
var _ ports.Store = (*Store)(nil)

type userRecord struct {
	id        valueobjects.UserID
	name      string
	email     string
	createdAt time.Time
	updatedAt time.Time
}

func (r userRecord) toEntity() *entities.User {
	return entities.ReconstructUser(r.id, r.name, r.email, r.createdAt, r.updatedAt)
}

type edgeKey struct {
	friendID   string
	friendOfID string
}

// Store keeps users and edges in maps guarded by a single RWMutex
type Store struct {
	mu      sync.RWMutex
	users   map[string]userRecord
	emails  map[string]string
	edges   map[edgeKey]struct{}
	friends map[string]map[string]valueobjects.UserID
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:   make(map[string]userRecord),
		emails:  make(map[string]string),
		edges:   make(map[edgeKey]struct{}),
		friends: make(map[string]map[string]valueobjects.UserID),
	}
}

// Create stores a new user
func (s *Store) Create(ctx context.Context, user *entities.User) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.FromStorage("create_user", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := user.ID().String()
	if _, exists := s.users[id]; exists {
		return pkgerrors.NewConflictError("user already exists").
			WithDetails(map[string]interface{}{"userId": id})
	}
	if _, taken := s.emails[user.Email()]; taken {
		return pkgerrors.NewUniqueConstraintError("email")
	}

	s.users[id] = userRecord{
		id:        user.ID(),
		name:      user.Name(),
		email:     user.Email(),
		createdAt: user.CreatedAt(),
		updatedAt: user.UpdatedAt(),
	}
	s.emails[user.Email()] = id
	return nil
}

// List returns every user ordered by creation time, then id
func (s *Store) List(ctx context.Context) ([]*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.FromStorage("list_users", err)
	}

	s.mu.RLock()
	records := make([]userRecord, 0, len(s.users))
	for _, r := range s.users {
		records = append(records, r)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].createdAt.Equal(records[j].createdAt) {
			return records[i].createdAt.Before(records[j].createdAt)
		}
		return records[i].id.String() < records[j].id.String()
	})

	users := make([]*entities.User, len(records))
	for i, r := range records {
		users[i] = r.toEntity()
	}
	return users, nil
}

// GetByID retrieves a user by its ID
func (s *Store) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.FromStorage("get_user", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[id.String()]
	if !ok {
		return nil, pkgerrors.NewUserNotFoundError(id.String())
	}
	return r.toEntity(), nil
}

// Update persists the user's profile
func (s *Store) Update(ctx context.Context, user *entities.User) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.FromStorage("update_user", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := user.ID().String()
	current, ok := s.users[id]
	if !ok {
		return pkgerrors.NewUserNotFoundError(id)
	}
	if owner, taken := s.emails[user.Email()]; taken && owner != id {
		return pkgerrors.NewUniqueConstraintError("email")
	}

	delete(s.emails, current.email)
	s.emails[user.Email()] = id
	current.name = user.Name()
	current.email = user.Email()
	current.updatedAt = user.UpdatedAt()
	s.users[id] = current
	return nil
}

// Delete removes the user and every edge that references it
func (s *Store) Delete(ctx context.Context, id valueobjects.UserID) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.FromStorage("delete_user", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	r, ok := s.users[key]
	if !ok {
		return pkgerrors.NewUserNotFoundError(key)
	}

	for edge := range s.edges {
		if edge.friendID == key || edge.friendOfID == key {
			s.removeEdge(edge)
		}
	}
	delete(s.emails, r.email)
	delete(s.users, key)
	return nil
}

// SaveEdges stores every edge or none of them
func (s *Store) SaveEdges(ctx context.Context, edges ...entities.Friendship) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.FromStorage("save_friendship", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[edgeKey]struct{}, len(edges))
	for _, e := range edges {
		for _, endpoint := range []valueobjects.UserID{e.FriendOfID(), e.FriendID()} {
			if _, ok := s.users[endpoint.String()]; !ok {
				return pkgerrors.NewUserNotFoundError(endpoint.String())
			}
		}
		key := keyOf(e)
		_, stored := s.edges[key]
		_, repeated := pending[key]
		if stored || repeated {
			return friendshipExists(e)
		}
		pending[key] = struct{}{}
	}

	for _, e := range edges {
		s.addEdge(e)
	}
	return nil
}

// DeleteEdges removes every edge or none of them
func (s *Store) DeleteEdges(ctx context.Context, edges ...entities.Friendship) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.FromStorage("delete_friendship", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range edges {
		if _, ok := s.edges[keyOf(e)]; !ok {
			return pkgerrors.NewFriendshipNotFoundError(e.FriendID().String(), e.FriendOfID().String())
		}
	}
	for _, e := range edges {
		s.removeEdge(keyOf(e))
	}
	return nil
}

// FriendIDsOf returns the friendId of every edge owned by ids
func (s *Store) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.FromStorage("friend_ids_of", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []valueobjects.UserID
	for _, id := range ids {
		for _, friend := range s.friends[id.String()] {
			out = append(out, friend)
		}
	}
	return out, nil
}

// UsersByIDs returns the known users among ids, ascending by id
func (s *Store) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.FromStorage("users_by_ids", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	users := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		key := id.String()
		r, ok := s.users[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		users = append(users, r.toEntity())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID().String() < users[j].ID().String() })
	return users, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) addEdge(e entities.Friendship) {
	s.edges[keyOf(e)] = struct{}{}
	owner := e.FriendOfID().String()
	if s.friends[owner] == nil {
		s.friends[owner] = make(map[string]valueobjects.UserID)
	}
	s.friends[owner][e.FriendID().String()] = e.FriendID()
}

func (s *Store) removeEdge(key edgeKey) {
	delete(s.edges, key)
	if friends, ok := s.friends[key.friendOfID]; ok {
		delete(friends, key.friendID)
		if len(friends) == 0 {
			delete(s.friends, key.friendOfID)
		}
	}
}

func keyOf(e entities.Friendship) edgeKey {
	return edgeKey{friendID: e.FriendID().String(), friendOfID: e.FriendOfID().String()}
}

func friendshipExists(e entities.Friendship) error {
	return pkgerrors.NewConflictError("friendship already exists").
		WithCode(pkgerrors.CodeFriendshipExists).
		WithDetails(map[string]interface{}{
			"friendId":   e.FriendID().String(),
			"friendOfId": e.FriendOfID().String(),
		})
}
