package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/logging"
)

// natsFlushTimeout bounds the final flush during Close.
const natsFlushTimeout = 2 * time.Second

// NATSSink publishes stage events to "<prefix>.<pipeline>.<stage>" subjects.
// Publishes are buffered by the client; a full buffer drops the event.
type NATSSink struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

// NewNATSSink connects to the server at url.
func NewNATSSink(url, prefix string, logger *logging.Logger) (*NATSSink, error) {
	if prefix == "" {
		prefix = "spr.telemetry"
	}
	nc, err := nats.Connect(url,
		nats.Name("spr-telemetry"),
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &NATSSink{nc: nc, prefix: prefix, logger: logger}, nil
}

// Emit publishes the event. Failures are logged and dropped.
func (s *NATSSink) Emit(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn(ctx, "dropping stage event",
			zap.String("sink", "nats"),
			zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s.%s.%s", s.prefix, ev.Pipeline, ev.Stage)
	if err := s.nc.Publish(subject, data); err != nil {
		s.logger.Warn(ctx, "dropping stage event",
			zap.String("sink", "nats"),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// Close flushes buffered publishes and closes the connection.
func (s *NATSSink) Close(ctx context.Context) error {
	timeout := natsFlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		if err := s.nc.FlushTimeout(timeout); err != nil {
			s.logger.Warn(ctx, "nats flush on close", zap.Error(err))
		}
	}
	s.nc.Close()
	return nil
}
