package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishWithoutConnection(t *testing.T) {
	var nc *NATSClient
	assert.ErrorIs(t, nc.Publish("booking.expired", map[string]string{"order_id": "o1"}), ErrNotConnected)
	assert.ErrorIs(t, (&NATSClient{}).Publish("booking.expired", nil), ErrNotConnected)
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{ClusterID: "events"}.Enabled())
	assert.True(t, Config{URL: "nats://localhost:4222"}.Enabled())
}
