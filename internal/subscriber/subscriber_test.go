package subscriber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sonoshub/control-plane/internal/soap"
)

func TestSubscriptionID_Deterministic(t *testing.T) {
	a := subscriptionID("http://192.168.1.50:1400", soap.ServiceAVTransport)
	b := subscriptionID("http://192.168.1.50:1400", soap.ServiceAVTransport)
	assert.Equal(t, a, b)

	c := subscriptionID("http://192.168.1.51:1400", soap.ServiceAVTransport)
	assert.NotEqual(t, a, c)
}

func TestParseTimeoutHeader(t *testing.T) {
	assert.Equal(t, 1800*time.Second, parseTimeoutHeader("Second-1800"))
	assert.Equal(t, 24*time.Hour, parseTimeoutHeader("Second-infinite"))
	assert.Equal(t, 300*time.Second, parseTimeoutHeader("garbage"))
}

func TestSubscription_IsExpiringSoon(t *testing.T) {
	sub := &Subscription{
		Timeout:      time.Minute,
		SubscribedAt: time.Now().Add(-31 * time.Second),
	}
	assert.True(t, sub.IsExpiringSoon(time.Now()))

	fresh := &Subscription{
		Timeout:      time.Hour,
		SubscribedAt: time.Now(),
	}
	assert.False(t, fresh.IsExpiringSoon(time.Now()))
}
