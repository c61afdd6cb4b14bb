package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"
)

type fakeEventBridge struct {
	inputs []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.output != nil {
		return f.output, f.err
	}
	return &eventbridge.PutEventsOutput{}, f.err
}

func friendshipEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewFriendshipCreated(valueobjects.NewUserID(), valueobjects.MustUserID("owner"), true, time.Now())
	}
	return out
}

func TestPublisher_PublishBatch(t *testing.T) {
	t.Run("splits into batches of ten", func(t *testing.T) {
		client := &fakeEventBridge{}
		publisher := NewPublisher(client, "friendship-events", zap.NewNop())

		require.NoError(t, publisher.PublishBatch(context.Background(), friendshipEvents(23)))

		require.Len(t, client.inputs, 3)
		assert.Len(t, client.inputs[0].Entries, 10)
		assert.Len(t, client.inputs[2].Entries, 3)
	})

	t.Run("entry carries bus, source and detail", func(t *testing.T) {
		client := &fakeEventBridge{}
		publisher := NewPublisher(client, "friendship-events", zap.NewNop())
		event := events.NewUserCreated(valueobjects.MustUserID("alice"), "Alice", "alice@example.com", time.Now())

		require.NoError(t, publisher.Publish(context.Background(), event))

		entry := client.inputs[0].Entries[0]
		assert.Equal(t, "friendship-events", *entry.EventBusName)
		assert.Equal(t, Source, *entry.Source)
		assert.Equal(t, events.TypeUserCreated, *entry.DetailType)

		var detail map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(*entry.Detail), &detail))
		assert.Equal(t, "alice@example.com", detail["email"])
	})

	t.Run("failed entries are an error", func(t *testing.T) {
		client := &fakeEventBridge{output: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
		}}
		publisher := NewPublisher(client, "bus", zap.NewNop())

		assert.Error(t, publisher.PublishBatch(context.Background(), friendshipEvents(1)))
	})

	t.Run("client error is wrapped", func(t *testing.T) {
		cause := errors.New("throttled")
		publisher := NewPublisher(&fakeEventBridge{err: cause}, "bus", zap.NewNop())

		assert.ErrorIs(t, publisher.PublishBatch(context.Background(), friendshipEvents(1)), cause)
	})

	t.Run("nothing to send", func(t *testing.T) {
		client := &fakeEventBridge{}
		require.NoError(t, NewPublisher(client, "bus", zap.NewNop()).PublishBatch(context.Background(), nil))
		assert.Empty(t, client.inputs)
	})
}
