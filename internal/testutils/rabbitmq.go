//go:build integration
// +build integration

package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupRabbitMQ returns an AMQP URL. TEST_RABBITMQ_URL points at an existing
// broker; otherwise a rabbitmq:3.13 container is started.
func SetupRabbitMQ(t *testing.T) string {
	t.Helper()

	if url := os.Getenv("TEST_RABBITMQ_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image: "rabbitmq:3.13-alpine",
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "test",
			"RABBITMQ_DEFAULT_PASS": "test",
		},
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor: wait.ForLog("Server startup complete").
			WithStartupTimeout(90 * time.Second),
	}
	mq, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("rabbitmq container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = mq.Terminate(context.Background()) })

	host, err := mq.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := mq.MappedPort(ctx, "5672")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("amqp://test:test@%s:%s/", host, port.Port())
}
