package natsadapter

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// Connect opens the process-wide NATS connection shared by the publisher
// and subscriber. It keeps reconnecting for as long as the process runs.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

const subjectPrefix = "meetup."

// Subject returns the NATS subject of one meetup channel,
// e.g. meetup.42.midpoint.
func Subject(meetupID int64, ch domain.Channel) string {
	return subjectPrefix + strconv.FormatInt(meetupID, 10) + "." + string(ch)
}

// channelOf recovers the channel from a subject built by Subject.
func channelOf(subject string) domain.Channel {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return domain.Channel(subject[i+1:])
	}
	return ""
}
