package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/messaging/events"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// streams may not overlap in subjects, so every test shares one stream.
const testStream = "PRODUCTS"

// PublisherSuite publishes product events against a real JetStream server.
type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *PublisherSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestEnsureProductStream_Idempotent() {
	require.NoError(s.T(), EnsureProductStream(s.ctx, s.js, testStream))
	require.NoError(s.T(), EnsureProductStream(s.ctx, s.js, testStream))
}

func (s *PublisherSuite) TestPublish_DeliversToStream() {
	// given
	const stream = testStream
	require.NoError(s.T(), EnsureProductStream(s.ctx, s.js, stream))
	publisher := NewNatsPublisher(s.js)
	event := events.ProductChangedEvent{
		Kind:       events.KindCreated,
		ProductID:  "p-1",
		Name:       "Pen",
		Price:      10,
		Image:      "http://x/pen.png",
		OccurredAt: time.Now().UTC(),
	}

	// when
	err := publisher.Publish(s.ctx, event)

	// then
	require.NoError(s.T(), err)
	consumer, err := s.js.CreateOrUpdateConsumer(s.ctx, stream, jetstream.ConsumerConfig{
		FilterSubject: messaging.ProductCreatedSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(s.T(), err)
	msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
	require.NoError(s.T(), err)

	var received events.ProductChangedEvent
	for msg := range msgs.Messages() {
		require.NoError(s.T(), json.Unmarshal(msg.Data(), &received))
		require.NoError(s.T(), msg.Ack())
	}
	s.Equal("p-1", received.ProductID)
	s.Equal("Pen", received.Name)
}

func (s *PublisherSuite) TestSubscribe_ReceivesPublishedEvents() {
	// given
	const stream = testStream
	require.NoError(s.T(), EnsureProductStream(s.ctx, s.js, stream))
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	received := make(chan events.ProductChangedEvent, 1)
	subscriberCfg := config.SubscriberConfig{
		Stream:   stream,
		Subject:  messaging.ProductDeletedSubject,
		Consumer: "catalog-test",
		Batch:    1,
		Timeout:  500 * time.Millisecond,
		Interval: 100 * time.Millisecond,
		Workers:  1,
	}
	done := make(chan error, 1)
	go func() {
		done <- Subscribe(ctx, s.js, subscriberCfg, func(_ context.Context, event events.ProductChangedEvent) error {
			received <- event
			return nil
		}, s.logger)
	}()

	// when
	err := NewNatsPublisher(s.js).Publish(s.ctx, events.ProductChangedEvent{
		Kind:       events.KindDeleted,
		ProductID:  "p-2",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(s.T(), err)

	// then
	select {
	case event := <-received:
		s.Equal(events.KindDeleted, event.Kind)
		s.Equal("p-2", event.ProductID)
	case <-time.After(10 * time.Second):
		s.Fail("product event was not delivered")
	}
	cancel()
	s.ErrorIs(<-done, context.Canceled)
}
