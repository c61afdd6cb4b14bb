// Package seed loads the demo friendship chain Alice - Bob - Charlie - David - Eve.
package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
)

// Names lists the seeded users in chain order. Each adjacent pair is linked
// in both directions.
var Names = []string{"Alice", "Bob", "Charlie", "David", "Eve"}

// Result holds the seeded users by name
type Result struct {
	Users map[string]*entities.User
}

// ID returns the id of a seeded user
func (r Result) ID(name string) valueobjects.UserID {
	if u, ok := r.Users[name]; ok {
		return u.ID()
	}
	return valueobjects.UserID{}
}

// Run creates the users and friendships. A domain suffix keeps repeated runs
// against the same store from colliding on email.
func Run(ctx context.Context, users ports.UserRepository, friendships ports.FriendshipRepository, emailDomain string, logger *zap.Logger) (Result, error) {
	if emailDomain == "" {
		emailDomain = "example.com"
	}

	result := Result{Users: make(map[string]*entities.User, len(Names))}
	for _, name := range Names {
		email := fmt.Sprintf("%s@%s", strings.ToLower(name), emailDomain)
		user, err := entities.NewUser(valueobjects.NewUserID(), name, email)
		if err != nil {
			return result, err
		}
		if err := users.Create(ctx, user); err != nil {
			return result, fmt.Errorf("seeding %s: %w", name, err)
		}
		result.Users[name] = user
	}

	for i := 0; i+1 < len(Names); i++ {
		a, b := result.Users[Names[i]], result.Users[Names[i+1]]
		edge, err := entities.NewFriendship(a.ID(), b.ID())
		if err != nil {
			return result, err
		}
		if err := friendships.SaveEdges(ctx, edge.Edges(true)...); err != nil {
			return result, fmt.Errorf("linking %s and %s: %w", Names[i], Names[i+1], err)
		}
	}

	logger.Info("Seeded friendship chain",
		zap.Int("users", len(result.Users)),
		zap.Int("edges", 2*(len(Names)-1)),
	)
	return result, nil
}
