package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferryhub/internal/metrics"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(m kafka.Message, key string) string {
	return headerCarrier{msg: &m}.Get(key)
}

func TestPublishBookingConfirmed(t *testing.T) {
	w := &fakeWriter{}
	at := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)
	p := &KafkaPublisher{writer: w, topic: DefaultTopic, metrics: metrics.New(), now: func() time.Time { return at }}

	err := p.PublishBookingConfirmed(context.Background(), BookingConfirmed{BookingReference: "ref-1", Provider: "sealink", PNR: "P1", TotalAmount: 2520})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	m := w.msgs[0]
	assert.Equal(t, "ref-1", string(m.Key))
	assert.Equal(t, TypeBookingConfirmed, header(m, "ce-type"))
	assert.Equal(t, "sealink/P1", header(m, "ce-subject"))
	assert.Equal(t, "2026-11-01T08:00:00Z", header(m, "ce-time"))
	assert.NotEmpty(t, header(m, "ce-id"))

	var body BookingConfirmed
	require.NoError(t, json.Unmarshal(m.Value, &body))
	assert.Equal(t, 2520.0, body.TotalAmount)
}

func TestPublishFailureIsReturned(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("no brokers")}, topic: "t", now: time.Now}
	err := p.PublishBookingConfirmed(context.Background(), BookingConfirmed{BookingReference: "r"})
	assert.ErrorContains(t, err, "no brokers")
}

func TestHeaderCarrierSetReplaces(t *testing.T) {
	m := kafka.Message{}
	c := headerCarrier{msg: &m}
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	assert.Equal(t, []string{"traceparent"}, c.Keys())
	assert.Equal(t, "b", c.Get("traceparent"))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishBookingConfirmed(context.Background(), BookingConfirmed{}))
	assert.NoError(t, p.Close())
}
