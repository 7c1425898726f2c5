package notification

import (
	"context"

	"kwenda/internal/logger"
)

// MultiSink writes to a primary sink whose failure fails the dispatch, then
// fans out to secondary sinks whose failures are only logged.
type MultiSink struct {
	Primary   Sink
	Secondary []Sink
	log       logger.Logger
}

func NewMultiSink(log logger.Logger, primary Sink, secondary ...Sink) *MultiSink {
	if log == nil {
		log = logger.Nop{}
	}
	return &MultiSink{Primary: primary, Secondary: secondary, log: log}
}

func (m *MultiSink) Send(ctx context.Context, batch []Notification) error {
	if err := m.Primary.Send(ctx, batch); err != nil {
		return err
	}
	for _, s := range m.Secondary {
		if err := s.Send(ctx, batch); err != nil {
			m.log.Warnf("secondary sink %T failed for %d notifications: %v", s, len(batch), err)
		}
	}
	return nil
}
