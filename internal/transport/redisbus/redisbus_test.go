package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/service/notify"
)

var _ notify.Sink = (*Sink)(nil)

func TestSink_PublishesOnChannelKey(t *testing.T) {
	t.Parallel()

	f := newFakeRedis()
	s := NewSink(f, "")
	n := domain.Notification{ID: "n1", OrderID: "O1", Recipient: domain.ToDriver("D1"), Kind: domain.KindDeliveryOffer,
		Payload: map[string]any{"offered_price": 6.3}}

	require.NoError(t, s.Deliver(context.Background(), n.Recipient.ChannelKey(), n))
	require.Len(t, f.messages, 1)
	require.Equal(t, "driver:D1", f.messages[0].channel)

	var got domain.Notification
	require.NoError(t, json.Unmarshal(f.messages[0].body, &got))
	require.Equal(t, domain.KindDeliveryOffer, got.Kind)
	require.Equal(t, 6.3, got.Payload["offered_price"])
}

func TestSink_Prefix(t *testing.T) {
	t.Parallel()

	f := newFakeRedis()
	require.NoError(t, NewSink(f, "sim:").Deliver(context.Background(), "broadcast", domain.Notification{}))
	require.Equal(t, "sim:broadcast", f.messages[0].channel)
}

func TestSink_PublishError(t *testing.T) {
	t.Parallel()

	f := newFakeRedis()
	f.err = errors.New("connection refused")
	err := NewSink(f, "").Deliver(context.Background(), "client:C1", domain.Notification{})
	require.ErrorContains(t, err, "publish client:C1")
}

func TestCursorStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFakeRedis()
	s := NewCursorStore(f)

	tok, err := s.LoadCursor(ctx, "orchestrator.orders")
	require.NoError(t, err)
	require.Nil(t, tok)

	require.NoError(t, s.PersistCursor(ctx, "orchestrator.orders", []byte("42")))
	require.Equal(t, []byte("42"), f.values["cursor:orchestrator.orders"])

	tok, err = s.LoadCursor(ctx, "orchestrator.orders")
	require.NoError(t, err)
	require.Equal(t, []byte("42"), tok)
}

func TestCursorStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFakeRedis()
	f.err = errors.New("timeout")
	s := NewCursorStore(f)

	_, err := s.LoadCursor(ctx, "x")
	require.ErrorContains(t, err, "load cursor x")
	require.ErrorContains(t, s.PersistCursor(ctx, "x", []byte("1")), "persist cursor x")
}

func TestRedisIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := NewClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer c.Close()

	stream := fmt.Sprintf("test.%d", time.Now().UnixNano())
	cs := NewCursorStore(c)
	require.NoError(t, cs.PersistCursor(ctx, stream, []byte("7")))
	tok, err := cs.LoadCursor(ctx, stream)
	require.NoError(t, err)
	require.Equal(t, []byte("7"), tok)
	require.NoError(t, c.Del(ctx, cursorKey(stream)).Err())

	sub := c.Subscribe(ctx, "driver:"+stream)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n := domain.Notification{OrderID: "O1", Recipient: domain.ToDriver(stream), Kind: domain.KindCourseAttributed}
	require.NoError(t, NewSink(c, "").Deliver(ctx, n.Recipient.ChannelKey(), n))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got domain.Notification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	require.Equal(t, "O1", got.OrderID)
}
