package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	first, unsubscribeFirst := bus.Subscribe()
	second, unsubscribeSecond := bus.Subscribe()
	defer unsubscribeSecond()

	bus.Publish(New(TypeDocumentTrashed, "u1", Lifecycle{DocumentID: "d1"}))

	got := <-first
	assert.Equal(t, TypeDocumentTrashed, got.Type)
	assert.Equal(t, "u1", got.ActorID)
	assert.NotEmpty(t, got.ID)

	payload, ok := got.Payload.(Lifecycle)
	require.True(t, ok)
	assert.Equal(t, "d1", payload.DocumentID)

	assert.Equal(t, TypeDocumentTrashed, (<-second).Type)

	unsubscribeFirst()
	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open)
}

func TestBusPublishDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(New(TypeDocumentErased, "", nil))
	}

	var nilBus *InMemoryBus
	nilBus.Publish(New(TypeDocumentErased, "", nil))
}
