package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// WSBridge fans out Bus events to websocket clients, grounded in
// CineVault's WSHub/WSClient split: one goroutine per connection drains a
// buffered send channel, Bus.Publish never blocks on a slow client (its
// send is already best-effort via Bus's own subscriber channel). The HTTP
// layer that accepts connections and calls Serve is out of spec scope;
// this is the thin collaborator the service facade wires into it.
type WSBridge struct {
	bus *Bus
	log zerolog.Logger
}

// NewWSBridge wires bridge against bus.
func NewWSBridge(bus *Bus, log zerolog.Logger) *WSBridge {
	return &WSBridge{bus: bus, log: log.With().Str("component", "events_ws_bridge").Logger()}
}

// Serve subscribes conn to category and streams events as JSON text frames
// until ctx is done or the connection errs. It blocks until the connection
// closes; callers run it in its own goroutine per accepted connection.
func (b *WSBridge) Serve(ctx context.Context, conn *websocket.Conn, category Category) {
	id, ch, replay := b.bus.Subscribe(category)
	defer b.bus.Unsubscribe(id)

	for _, e := range replay {
		if !b.write(ctx, conn, e) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if !b.write(ctx, conn, e) {
				return
			}
		}
	}
}

func (b *WSBridge) write(ctx context.Context, conn *websocket.Conn, e Event) bool {
	msg, err := json.Marshal(e)
	if err != nil {
		b.log.Error().Err(err).Msg("marshal event")
		return true
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		b.log.Debug().Err(err).Msg("websocket write failed, dropping subscriber")
		return false
	}
	return true
}
