package services

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("account change reaches the member channel", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		bus := NewEventBus(client)

		mock.ExpectPublish("jioearn:events:user:7", "changed").SetVal(1)

		bus.PublishAccountChanged(ctx, 7)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("feed change reaches the requests channel", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		bus := NewEventBus(client)

		mock.ExpectPublish("jioearn:events:requests:withdrawals", "changed").SetVal(2)

		bus.PublishRequestsChanged(ctx, FeedWithdrawals)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("publish failure is swallowed", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		bus := NewEventBus(client)

		mock.ExpectPublish("jioearn:events:requests:tasks", "changed").SetErr(assert.AnError)

		bus.PublishRequestsChanged(ctx, FeedTasks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		bus := NewEventBus(nil)

		bus.PublishAccountChanged(ctx, 7)
		bus.PublishRequestsChanged(ctx, FeedActivations)
	})
}

func TestEventBus_Subscribe(t *testing.T) {
	t.Run("nil client returns a closed channel", func(t *testing.T) {
		bus := NewEventBus(nil)

		ch, cancel := bus.SubscribeAccountChanged(context.Background(), 7)
		defer cancel()

		_, open := <-ch
		assert.False(t, open)
	})
}
