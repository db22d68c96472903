//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atlas-express/service-delivery/internal/application"
	"github.com/atlas-express/service-delivery/internal/auth"
	"github.com/atlas-express/service-delivery/internal/domain/delivery"
	"github.com/atlas-express/service-delivery/internal/events"
	"github.com/atlas-express/service-delivery/internal/geo"
	"github.com/atlas-express/service-delivery/internal/handler"
	"github.com/atlas-express/service-delivery/internal/repository"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testJWTSecret = "integration-test-secret"

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_delivery",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_delivery sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.QuoteModel{},
		&repository.BookingModel{},
		&repository.BookingRequestModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicDeliveryEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// fakeProviders serves canned Nominatim and OSRM responses so the stack under
// test never calls the public instances.
type fakeProviders struct {
	Nominatim *httptest.Server
	OSRM      *httptest.Server
}

func startFakeProviders(t *testing.T) *fakeProviders {
	t.Helper()

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"36.7538","lon":"3.0588"}]`))
	}))
	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":10000,"duration":1200}]}`))
	}))

	t.Cleanup(func() {
		nominatim.Close()
		osrm.Close()
	})
	return &fakeProviders{Nominatim: nominatim, OSRM: osrm}
}

// deliveryStack is the fully wired service behind a live HTTP server.
type deliveryStack struct {
	Server     *httptest.Server
	JWTManager *auth.JWTManager
}

// setupDeliveryStack wires the real service against the containers and the
// fake geo providers, and serves it over HTTP.
func setupDeliveryStack(t *testing.T, infra *testInfra, providers *fakeProviders) *deliveryStack {
	t.Helper()
	logger := zap.NewNop()

	geocoder := geo.NewNominatimGeocoder(providers.Nominatim.URL, nil)
	resolver := geo.NewFallbackRouteResolver("", "", providers.OSRM.URL, nil, logger)

	producer := events.NewProducer(infra.KafkaBrokers, logger)
	t.Cleanup(func() { _ = producer.Close() })

	service := application.NewDeliveryService(
		geocoder,
		resolver,
		delivery.NewStandardPricingEngine(),
		repository.NewGormQuoteRepository(infra.DB),
		repository.NewGormBookingRepository(infra.DB),
		repository.NewGormBookingRequestRepository(infra.DB),
		producer,
		logger,
	)

	jwtManager := auth.NewJWTManager(testJWTSecret)
	router := handler.NewRouter(logger, jwtManager, service, infra.DB)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &deliveryStack{Server: server, JWTManager: jwtManager}
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) events.Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		var envelope events.Envelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			continue
		}
		if envelope.Type == expectedType {
			return envelope
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
