package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
)

// wsFrame is sent to the client for every event.
type wsFrame struct {
	Event domain.EventKind `json:"event"`
	Data  json.RawMessage  `json:"data"`
}

const wsWriteWait = 5 * time.Second

// WebSocketUpgrade rejects non-upgrade requests and unknown meetups before
// the connection is hijacked.
func WebSocketUpgrade(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if _, err := deps.Meetups.GetByID(c.UserContext(), id); err != nil {
			return errFromDomain(c, err)
		}
		return c.Next()
	}
}

// WebSocketHandler relays a meetup's events as JSON text frames. Heartbeats
// are sent as ping control frames. Client messages are ignored; a read
// error ends the stream.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id, _ := strconv.ParseInt(c.Params("id"), 10, 64)
		streamID := uuid.NewString()
		logger := slog.Default().With("meetup_id", id, "stream_id", streamID, "transport", "ws")

		ctx, cancel := context.WithCancel(deps.baseContext())
		defer cancel()

		st, err := deps.Streams.Open(ctx, id)
		if err != nil {
			logger.Warn("ws stream open failed", "error", err)
			_ = c.WriteJSON(APIError{Status: statusFor(domain.KindOf(err)), Code: domain.CodeOf(err), Message: err.Error()})
			return
		}

		gauge := metrics.ActiveStreams.WithLabelValues("ws")
		gauge.Inc()
		defer gauge.Dec()
		logger.Info("stream opened", "remote", c.RemoteAddr().String())

		go func() {
			defer cancel()
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		err = st.Run(ctx, func(f usecases.Frame) error {
			if f.Heartbeat {
				return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			}
			_ = c.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return c.WriteJSON(wsFrame{Event: f.Event, Data: f.Data})
		})
		logger.Info("stream closed", "reason", errString(err))
	}
}
