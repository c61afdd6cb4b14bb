package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"friendship-backend/application/queries"
	"friendship-backend/infrastructure/config"
	"friendship-backend/infrastructure/di"
	apperrors "friendship-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, configure ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.StoreDriver = config.DriverMemory
	cfg.Environment = "test"
	for _, fn := range configure {
		fn(cfg)
	}

	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return &testServer{t: t, handler: NewRouter(container).Setup()}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createUser(name, email string) queries.UserView {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/users", map[string]string{"name": name, "email": email})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var view queries.UserView
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func (s *testServer) befriend(userID, friendID string, bidirectional bool) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/users/"+userID+"/friends", map[string]interface{}{
		"friendId":      friendID,
		"bidirectional": bidirectional,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) friendNames(userID, degree string) []string {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/api/v1/users/"+userID+"/friends?degree="+degree, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var views []queries.UserView
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &views))
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return names
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	assert.True(t, body.Error)
	assert.Equal(t, rec.Code, body.StatusCode)
	return body
}

func TestUsers_CRUD(t *testing.T) {
	s := newTestServer(t)

	// Create
	alice := s.createUser("Alice", "alice@example.com")
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.False(t, alice.CreatedAt.IsZero())

	// Get
	rec := s.do(http.MethodGet, "/api/v1/users/"+alice.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got queries.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, alice.ID, got.ID)

	// Update
	rec = s.do(http.MethodPatch, "/api/v1/users/"+alice.ID, map[string]string{"name": "Alicia"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated queries.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.False(t, updated.UpdatedAt.Before(alice.UpdatedAt))

	// List
	s.createUser("Bob", "bob@example.com")
	rec = s.do(http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []queries.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "Alicia", all[0].Name)

	// Delete returns the removed user
	rec = s.do(http.MethodDelete, "/api/v1/users/"+alice.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted queries.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, alice.ID, deleted.ID)

	rec = s.do(http.MethodGet, "/api/v1/users/"+alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_ListEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/users", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUsers_Errors(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("Alice", "alice@example.com")
	bob := s.createUser("Bob", "bob@example.com")

	t.Run("invalid email is a validation error", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users", map[string]string{"name": "X", "email": "not-an-email"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "VALIDATION", body.Type)
		assert.Contains(t, body.Details, "errors")
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users", map[string]string{"email": "x@example.com"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users", `{"name":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Type)
	})

	t.Run("empty body is a bad request", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("taken email on create", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users", map[string]string{"name": "Other", "email": "alice@example.com"})

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "UNIQUE_CONSTRAINT_VIOLATION", body.Type)
		assert.Equal(t, "email", body.Details["field"])
	})

	t.Run("taken email on update", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/v1/users/"+bob.ID, map[string]string{"email": alice.Email})

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "UNIQUE_CONSTRAINT_VIOLATION", decodeError(t, rec).Type)
	})

	t.Run("empty name on update", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/v1/users/"+bob.ID, map[string]string{"name": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			rec := s.do(method, "/api/v1/users/ghost", nil)

			require.Equal(t, http.StatusNotFound, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "USER_NOT_FOUND", body.Type)
			assert.Equal(t, "ghost", body.Details["userId"])
		}

		rec := s.do(http.MethodPatch, "/api/v1/users/ghost", map[string]string{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("blank id is an unknown user", func(t *testing.T) {
		alice := s.createUser("Alice", "alice.blank@example.com")
		requests := []struct {
			method string
			path   string
			body   interface{}
		}{
			{http.MethodGet, "/api/v1/users/%20", nil},
			{http.MethodDelete, "/api/v1/users/%20", nil},
			{http.MethodPatch, "/api/v1/users/%20", map[string]string{"name": "Nobody"}},
			{http.MethodGet, "/api/v1/users/%20/friends?degree=1", nil},
			{http.MethodPost, "/api/v1/users/%20/friends", map[string]string{"friendId": alice.ID}},
			{http.MethodPost, "/api/v1/users/" + alice.ID + "/friends", map[string]string{"friendId": "   "}},
			{http.MethodDelete, "/api/v1/users/" + alice.ID + "/friends/%20", nil},
		}

		for _, req := range requests {
			rec := s.do(req.method, req.path, req.body)

			require.Equal(t, http.StatusNotFound, rec.Code, "%s %s", req.method, req.path)
			assert.Equal(t, "USER_NOT_FOUND", decodeError(t, rec).Type, "%s %s", req.method, req.path)
		}
	})
}

func TestFriends_DegreeValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("Alice", "alice@example.com")

	for _, degree := range []string{"", "0", "4", "-1", "two", "1.5"} {
		t.Run("degree="+degree, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/v1/users/"+alice.ID+"/friends?degree="+degree, nil)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_DEGREE", decodeError(t, rec).Type)
		})
	}

	t.Run("degree is checked before the user", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/users/ghost/friends?degree=9", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user with a valid degree", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/users/ghost/friends?degree=1", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "USER_NOT_FOUND", decodeError(t, rec).Type)
	})
}

func TestFriends_AddAndRemove(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("Alice", "alice@example.com")
	bob := s.createUser("Bob", "bob@example.com")

	s.befriend(alice.ID, bob.ID, true)
	assert.Equal(t, []string{"Bob"}, s.friendNames(alice.ID, "1"))
	assert.Equal(t, []string{"Alice"}, s.friendNames(bob.ID, "1"))

	t.Run("duplicate edge", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users/"+alice.ID+"/friends", map[string]string{"friendId": bob.ID})

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", decodeError(t, rec).Type)
	})

	t.Run("self edge", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users/"+alice.ID+"/friends", map[string]string{"friendId": alice.ID})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("missing friend id", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users/"+alice.ID+"/friends", map[string]string{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown friend", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users/"+alice.ID+"/friends", map[string]string{"friendId": "ghost"})

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "USER_NOT_FOUND", decodeError(t, rec).Type)
	})

	t.Run("invalid bidirectional flag", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/v1/users/"+alice.ID+"/friends/"+bob.ID+"?bidirectional=maybe", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	// One direction only
	rec := s.do(http.MethodDelete, "/api/v1/users/"+alice.ID+"/friends/"+bob.ID+"?bidirectional=false", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{}, s.friendNames(alice.ID, "1"))
	assert.Equal(t, []string{"Alice"}, s.friendNames(bob.ID, "1"))

	// The forward edge is gone now
	rec = s.do(http.MethodDelete, "/api/v1/users/"+alice.ID+"/friends/"+bob.ID+"?bidirectional=false", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Type)
}

func TestFriends_SingleMutualFriend(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("Alice", "alice@example.com")
	bob := s.createUser("Bob", "bob@example.com")
	s.befriend(alice.ID, bob.ID, true)

	assert.Equal(t, []string{"Bob"}, s.friendNames(alice.ID, "1"))
	assert.Equal(t, []string{}, s.friendNames(alice.ID, "2"))
	assert.Equal(t, []string{}, s.friendNames(alice.ID, "3"))
}

func TestFriends_Chain(t *testing.T) {
	s := newTestServer(t)
	names := []string{"Alice", "Bob", "Charlie", "David", "Eve"}
	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = s.createUser(name, name+"@example.com").ID
	}
	for i := 0; i+1 < len(ids); i++ {
		s.befriend(ids[i], ids[i+1], true)
	}

	assert.Equal(t, []string{"Bob"}, s.friendNames(ids[0], "1"))
	assert.Equal(t, []string{"Charlie"}, s.friendNames(ids[0], "2"))
	assert.Equal(t, []string{"David"}, s.friendNames(ids[0], "3"))

	// Deleting Bob cuts Alice off from everyone
	rec := s.do(http.MethodDelete, "/api/v1/users/"+ids[1], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{}, s.friendNames(ids[0], "1"))
	assert.Equal(t, []string{"David"}, s.friendNames(ids[2], "1"))
}

func TestFriends_FanOut(t *testing.T) {
	s := newTestServer(t)
	origin := s.createUser("origin", "origin@example.com").ID
	f := make([]string, 9)
	for i := range f {
		name := string(rune('a' + i))
		f[i] = s.createUser("f"+name, "f"+name+"@example.com").ID
	}
	for _, i := range []int{0, 1, 2} {
		s.befriend(origin, f[i], false)
	}
	for _, i := range []int{3, 4, 5} {
		s.befriend(f[0], f[i], false)
	}
	for _, i := range []int{6, 7, 8} {
		s.befriend(f[3], f[i], false)
	}

	assert.Len(t, s.friendNames(origin, "1"), 3)
	assert.ElementsMatch(t, []string{"fd", "fe", "ff"}, s.friendNames(origin, "2"))
	assert.ElementsMatch(t, []string{"fg", "fh", "fi"}, s.friendNames(origin, "3"))
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.EnableMetrics = true
	})

	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.createUser("Alice", "alice@example.com")
	rec = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "friendship_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/v1/users`)

	rec = s.do(http.MethodGet, "/docs/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc["basePath"])

	rec = s.do(http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Type)
}

func TestMetricsEndpoint_DisabledByDefault(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
