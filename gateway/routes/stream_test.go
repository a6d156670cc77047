package routes

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"fdchain/core"
	"fdchain/core/events"
	"fdchain/core/types"
	"fdchain/native/bank"
	"fdchain/storage"
)

func TestEventStreamForwardsMatchingEvents(t *testing.T) {
	rt := core.NewRuntime(storage.NewMemDB(), bank.DefaultConfig())
	hub := events.NewHub()
	rt.SetEmitter(hub)
	handler, err := New(Config{Runtime: rt, Stream: hub})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events/stream?type=" + events.TypeMint
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = rt.AdvanceBlocks(1)
	require.NoError(t, err)
	require.NoError(t, rt.Mint(alice, big.NewInt(25)))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Equal(t, events.TypeMint, evt.Type)
	require.Equal(t, alice.String(), evt.Attributes["to"])
	require.Equal(t, "25", evt.Attributes["amount"])
}

func TestEventStreamDisabled(t *testing.T) {
	rt := core.NewRuntime(storage.NewMemDB(), bank.DefaultConfig())
	handler, err := New(Config{Runtime: rt})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/events/stream", nil))
	require.Equal(t, 503, rec.Code)
}

func TestMatchesEvent(t *testing.T) {
	evt := &types.Event{Type: bank.EventTypeDAOLocked, Attributes: map[string]string{"user": alice.String()}}
	require.True(t, matchesEvent(evt, "", ""))
	require.True(t, matchesEvent(evt, bank.EventTypeDAOLocked, alice.String()))
	require.False(t, matchesEvent(evt, bank.EventTypeDAOUnlocked, ""))
	require.False(t, matchesEvent(evt, "", treasury.String()))

	reset := bank.NewTreasuryResetEvent(treasury, 7)
	require.True(t, matchesEvent(reset, bank.EventTypeTreasuryReset, treasury.String()))
	require.False(t, matchesEvent(reset, "", alice.String()))
}

func TestOriginPatterns(t *testing.T) {
	require.Equal(t, []string{"*"}, originPatterns(nil))
	require.Equal(t, []string{"app.example.com", "*"}, originPatterns([]string{"https://app.example.com", " * "}))
}
