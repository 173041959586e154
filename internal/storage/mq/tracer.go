package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("product-catalog/storage/mq")

// newKafkaTracer returns the kotel hooks of one client. Catalog records are
// keyed by product id, which is recorded on every span.
func newKafkaTracer(clientID, group string) *kotel.Tracer {
	opts := []kotel.TracerOpt{
		kotel.ClientID(clientID),
		kotel.KeyFormatter(productIDKey),
	}
	if group != "" {
		opts = append(opts, kotel.ConsumerGroup(group))
	}

	return kotel.NewTracer(opts...)
}

func productIDKey(rec *kgo.Record) (string, error) {
	return string(rec.Key), nil
}
