package notify

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Deliverer sends one notification on its channel.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// Make sure we conform to the interface
var _ Deliverer = (*Sender)(nil)

// Consume delivers every queued notification of event. Messages that fail to deliver are
// returned as batch item failures so only they are retried. A body that cannot be decoded
// never succeeds on retry and is dropped.
func Consume(ctx context.Context, d Deliverer, log *zap.Logger, event events.SQSEvent) events.SQSEventResponse {
	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	for _, message := range event.Records {
		l := log.With(zap.String("message_id", message.MessageId))

		n, err := Decode(message.Body)
		if err != nil {
			l.Error("dropping undecodable notification", zap.Error(err))
			continue
		}
		if err := d.Deliver(ctx, n); err != nil {
			l.Error("failed to deliver notification", zap.String("channel", string(n.Channel)), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		}
	}
	return resp
}
