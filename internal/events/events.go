// Package events publishes booking events for the booking-record
// collaborator.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ferryhub/internal/metrics"
	"ferryhub/internal/tracing"
)

const (
	TypeBookingConfirmed = "ferry.booking.confirmed"
	DefaultTopic         = "ferry.bookings"
	source               = "ferryhub"
)

// BookingConfirmed carries no passenger contact data.
type BookingConfirmed struct {
	BookingReference  string    `json:"bookingReference"`
	Provider          string    `json:"provider"`
	PNR               string    `json:"pnr"`
	ProviderBookingID string    `json:"providerBookingId,omitempty"`
	TripID            string    `json:"tripId"`
	ClassID           string    `json:"classId"`
	Origin            string    `json:"from"`
	Destination       string    `json:"to"`
	TravelDate        string    `json:"date"`
	TicketedCount     int       `json:"ticketedCount"`
	InfantCount       int       `json:"infantCount"`
	TotalAmount       float64   `json:"totalAmount"`
	Currency          string    `json:"currency"`
	PaymentReference  string    `json:"paymentReference"`
	TicketURL         string    `json:"ticketUrl,omitempty"`
	ConfirmedAt       time.Time `json:"confirmedAt"`
}

type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, e BookingConfirmed) error
	Close() error
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishBookingConfirmed(context.Context, BookingConfirmed) error { return nil }

func (Nop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string, m *metrics.Metrics) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaPublisher{writer: w, topic: topic, metrics: m, now: time.Now}
}

// PublishBookingConfirmed writes one CloudEvents-style message keyed by
// the booking reference, so events for one booking stay ordered.
func (p *KafkaPublisher) PublishBookingConfirmed(ctx context.Context, e BookingConfirmed) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	at := p.now().UTC()
	msg := kafka.Message{
		Key:   []byte(e.BookingReference),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte("1.0")},
			{Key: "ce-type", Value: []byte(TypeBookingConfirmed)},
			{Key: "ce-source", Value: []byte(source)},
			{Key: "ce-id", Value: []byte(uuid.NewString())},
			{Key: "ce-time", Value: []byte(at.Format(time.RFC3339))},
			{Key: "ce-subject", Value: []byte(e.Provider + "/" + e.PNR)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: at,
	}
	tracing.Inject(ctx, headerCarrier{msg: &msg})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.RecordEvent(p.topic, "error")
		return fmt.Errorf("failed to publish event to topic %s: %w", p.topic, err)
	}
	p.metrics.RecordEvent(p.topic, "ok")
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// headerCarrier exposes kafka headers to the trace propagator.
type headerCarrier struct{ msg *kafka.Message }

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
