package http

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/meetpoint/meetpoint/internal/core/usecases"
	"github.com/meetpoint/meetpoint/internal/pkg/logging"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
)

// writeSSE renders one frame in text/event-stream format.
func writeSSE(w *bufio.Writer, f usecases.Frame) error {
	var err error
	if f.Heartbeat {
		_, err = w.WriteString(": ping\n\n")
	} else {
		_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Event, f.Data)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

// StreamHandler serves a meetup's events as Server-Sent Events. Unknown
// meetups are rejected before the stream starts.
func StreamHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		reqID, _ := c.Locals("requestid").(string)
		ctx, cancel := context.WithCancel(logging.WithRequestID(deps.baseContext(), reqID))
		st, err := deps.Streams.Open(ctx, id)
		if err != nil {
			cancel()
			return errFromDomain(c, err)
		}

		streamID := uuid.NewString()
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")
		c.Set("X-Stream-ID", streamID)

		// The fiber ctx must not be touched inside the writer.
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			gauge := metrics.ActiveStreams.WithLabelValues("sse")
			gauge.Inc()
			defer gauge.Dec()

			slog.InfoContext(ctx, "stream opened", "meetup_id", id, "stream_id", streamID, "transport", "sse")
			err := st.Run(ctx, func(f usecases.Frame) error {
				return writeSSE(w, f)
			})
			slog.InfoContext(ctx, "stream closed", "meetup_id", id, "stream_id", streamID, "transport", "sse", "reason", errString(err))
		}))
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return "ended"
	}
	return err.Error()
}
