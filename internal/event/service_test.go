package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	running  bool
	cleaned  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if _, ok := c.handlers[topic]; ok {
		return errors.New("duplicate handler")
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	c.running = true
	return func() { c.cleaned = true }, nil
}

type fakeEvictor struct {
	evicted []int64
	err     error
}

func (f *fakeEvictor) DeleteProduct(_ context.Context, id int64) error {
	f.evicted = append(f.evicted, id)
	return f.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestService(t *testing.T) {
	ctx := context.Background()
	product := model.Product{ID: 7, Name: "Widget", CodeProduct: "W1", Price: decimal.RequireFromString("9.99"), Stock: 5}

	setup := func(t *testing.T) (*fakeConsumer, *fakeEvictor, event.CleanupFunc) {
		t.Helper()
		consumer := &fakeConsumer{handlers: map[string]mq.HandlerFunc{}}
		evictor := &fakeEvictor{}
		cleanup, err := event.New(log.Discard(), consumer, evictor).Run(ctx)
		require.NoError(t, err)
		return consumer, evictor, cleanup
	}

	t.Run("Should register every catalog topic and run the consumer", func(t *testing.T) {
		consumer, _, cleanup := setup(t)
		assert.Contains(t, consumer.handlers, event.TopicProductCreated)
		assert.Contains(t, consumer.handlers, event.TopicProductUpdated)
		assert.Contains(t, consumer.handlers, event.TopicProductDeleted)
		assert.True(t, consumer.running)

		cleanup()
		assert.True(t, consumer.cleaned)
	})

	t.Run("Should not evict on created events", func(t *testing.T) {
		consumer, evictor, _ := setup(t)
		payload := mustJSON(t, event.NewProductCreatedEvent(product))

		require.NoError(t, consumer.handlers[event.TopicProductCreated](ctx, event.TopicProductCreated, payload))
		assert.Empty(t, evictor.evicted)
	})

	t.Run("Should evict on updated and deleted events", func(t *testing.T) {
		consumer, evictor, _ := setup(t)

		updated := mustJSON(t, event.NewProductUpdatedEvent(product, 3))
		require.NoError(t, consumer.handlers[event.TopicProductUpdated](ctx, event.TopicProductUpdated, updated))

		deleted := mustJSON(t, event.NewProductDeletedEvent(product))
		require.NoError(t, consumer.handlers[event.TopicProductDeleted](ctx, event.TopicProductDeleted, deleted))

		assert.Equal(t, []int64{7, 7}, evictor.evicted)
	})

	t.Run("Should reject malformed payloads", func(t *testing.T) {
		consumer, _, _ := setup(t)
		err := consumer.handlers[event.TopicProductDeleted](ctx, event.TopicProductDeleted, []byte("{"))
		assert.ErrorContains(t, err, "unmarshal product.deleted event")
	})

	t.Run("Should surface eviction failures", func(t *testing.T) {
		consumer, evictor, _ := setup(t)
		evictor.err = errors.New("redis down")

		deleted := mustJSON(t, event.NewProductDeletedEvent(product))
		err := consumer.handlers[event.TopicProductDeleted](ctx, event.TopicProductDeleted, deleted)
		assert.ErrorContains(t, err, "redis down")
	})
}
