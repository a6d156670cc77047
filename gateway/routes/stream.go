package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"fdchain/core/types"
)

const wsWriteTimeout = 10 * time.Second

// EventStream provides live committed events.
type EventStream interface {
	Subscribe(buffer int) (<-chan *types.Event, func())
}

type streamRoutes struct {
	stream  EventStream
	origins []string
	logger  *slog.Logger
}

// streamEvents upgrades to a websocket and forwards committed events that
// match the optional type and account filters.
func (sr *streamRoutes) streamEvents(w http.ResponseWriter, r *http.Request) {
	if sr.stream == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "event stream disabled"})
		return
	}
	query := r.URL.Query()
	typ := query.Get("type")
	account := firstNonEmpty(query.Get("account"), query.Get("depositor"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns(sr.origins)})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	updates, cancel := sr.stream.Subscribe(0)
	defer cancel()
	ctx := conn.CloseRead(r.Context())
	sr.logger.Debug("event stream opened", slog.String("type", typ), slog.String("account", account))

	if err := forwardEvents(ctx, conn, updates, typ, account); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

// originPatterns converts allowed CORS origins into the host patterns the
// websocket handshake checks.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			origin = parsed.Host
		}
		patterns = append(patterns, origin)
	}
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	return patterns
}

func forwardEvents(ctx context.Context, conn *websocket.Conn, updates <-chan *types.Event, typ, account string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if !matchesEvent(evt, typ, account) {
				continue
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func matchesEvent(evt *types.Event, typ, account string) bool {
	if typ != "" && evt.Type != typ {
		return false
	}
	if account == "" {
		return true
	}
	for _, key := range []string{"depositor", "user", "to", "treasury"} {
		if evt.Attr(key) == account {
			return true
		}
	}
	return false
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt *types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
