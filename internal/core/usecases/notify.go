package usecases

import (
	"context"
	"log/slog"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("meetpoint/usecases")

// Notification tells the caller whether the events for a committed change
// reached the bus. The change itself is durable either way.
type Notification struct {
	Delivered bool `json:"delivered"`
}

func (n Notification) and(o Notification) Notification {
	return Notification{Delivered: n.Delivered && o.Delivered}
}

// delivered turns a publish result into a Notification, logging and
// counting failures instead of returning them.
func delivered(ctx context.Context, category string, meetupID int64, err error) Notification {
	if err == nil {
		return Notification{Delivered: true}
	}
	metrics.PublishFailures.WithLabelValues(category).Inc()
	slog.WarnContext(ctx, "event publish failed",
		"category", category,
		"meetup_id", meetupID,
		"error", err,
	)
	return Notification{Delivered: false}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.CodeOf(err)
}
