package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"
)

func TestPublisher_LogsEachEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewPublisher(zap.New(core))

	err := publisher.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewUserDeleted(valueobjects.MustUserID("alice"), "alice@example.com", time.Now()),
		events.NewFriendshipRemoved(valueobjects.MustUserID("bob"), valueobjects.MustUserID("alice"), false, time.Now()),
	})

	require.NoError(t, err)
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, events.TypeUserDeleted, entries[0].ContextMap()["eventType"])
	assert.Equal(t, "alice", entries[1].ContextMap()["aggregateID"])
}
