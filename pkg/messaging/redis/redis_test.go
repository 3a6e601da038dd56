package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/pkg/messaging"
)

func TestNewRedisBroker_BadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "://nope"}, zerolog.Nop())
	assert.Error(t, err)
}

// Runs against a real server when REDIS_URL is set.
func TestPublish(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := NewRedisBroker(ctx, Config{URL: url}, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	sub := b.client.Subscribe(ctx, messaging.Channel("test.event"))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, messaging.Channel("test.event"), map[string]string{"hello": "world"}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, msg.Payload)
}
