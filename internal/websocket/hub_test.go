package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func sampleRFQ(status model.RFQStatus) model.RFQ {
	rfq := model.RFQ{
		ID:          12,
		ProductName: "Jersey",
		Status:      status,
		Version:     2,
		Customer:    model.CustomerInfo{Name: "Ada", Email: "ada@example.com"},
	}
	rfq.Pricing.GrandTotal = decimal.RequireFromString("95")
	return rfq
}

func receive(t *testing.T, c *Client) RFQEventMessage {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg RFQEventMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return RFQEventMessage{}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := startHub(t)

	first := NewClient(hub, nil, 1)
	second := NewClient(hub, nil, 1)
	hub.Register(first)
	hub.Register(second)

	assert.Eventually(t, func() bool { return hub.SessionCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Unregister(first)
	assert.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	_, open := <-first.Send
	assert.False(t, open)
}

func TestHub_NotifyBroadcastsEvent(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, 3)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	event := notification.NewStatusChangedEvent(sampleRFQ(model.RFQStatusQuoted), model.RFQStatusNew, model.RFQStatusQuoted)
	require.NoError(t, hub.Notify(context.Background(), event))

	msg := receive(t, client)
	assert.Equal(t, "rfq.status_changed", msg.Type)
	assert.Equal(t, uint(12), msg.RFQID)
	assert.Equal(t, model.RFQStatusNew, msg.OldStatus)
	assert.Equal(t, model.RFQStatusQuoted, msg.Status)
	assert.Equal(t, "95.00", msg.GrandTotal)
	assert.Equal(t, "Ada", msg.CustomerName)
}

func TestHub_StatusFilter(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, 4)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.HandleClientMessage(client, []byte(`{"type":"filter","statuses":["approved","bogus"]}`))

	require.NoError(t, hub.Notify(context.Background(), notification.NewCreatedEvent(sampleRFQ(model.RFQStatusNew))))
	require.NoError(t, hub.Notify(context.Background(),
		notification.NewStatusChangedEvent(sampleRFQ(model.RFQStatusApproved), model.RFQStatusQuoted, model.RFQStatusApproved)))

	msg := receive(t, client)
	assert.Equal(t, model.RFQStatusApproved, msg.Status)

	select {
	case extra := <-client.Send:
		t.Fatalf("unexpected message %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FilterWithOnlyUnknownStatusesIsIgnored(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 4)

	hub.HandleClientMessage(client, []byte(`{"type":"filter","statuses":["approved"]}`))
	hub.HandleClientMessage(client, []byte(`{"type":"filter","statuses":["aproved"]}`))
	assert.True(t, client.wants(model.RFQStatusApproved))
	assert.False(t, client.wants(model.RFQStatusNew))

	hub.HandleClientMessage(client, []byte(`{"type":"filter","statuses":[]}`))
	assert.True(t, client.wants(model.RFQStatusNew))
}

func TestHub_RateLimitIgnoresExcessMessages(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 5)

	for i := 0; i < maxMessagesPerSecond; i++ {
		hub.HandleClientMessage(client, []byte(`{"type":"noop"}`))
	}
	hub.HandleClientMessage(client, []byte(`{"type":"filter","statuses":["new"]}`))

	assert.True(t, client.wants(model.RFQStatusQuoted))
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, 6)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.SessionCount())
}
