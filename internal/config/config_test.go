package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	LoadConfig()

	assert.Equal(t, 5*time.Second, StoreTimeout)
	assert.Equal(t, 2*time.Second, NotifyTimeout)
	assert.Equal(t, 3*time.Second, TypingTTL)
	assert.Equal(t, 5000, MaxMessageLength)
	assert.Equal(t, "local", RealtimeBroker)
	assert.Equal(t, "ticket.events", RabbitMQExchange)
}

func TestLoadConfig_FileOverlayAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  allowed_origins: ["https://campus.example"]
store:
  timeout: 7s
  max_message_length: 2000
realtime:
  broker: RabbitMQ
  typing_ttl: 4s
log:
  level: debug
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TYPING_TTL", "1500ms")
	LoadConfig()

	assert.Equal(t, "9090", ServerPort)
	assert.Equal(t, []string{"https://campus.example"}, AllowedOrigins)
	assert.Equal(t, 7*time.Second, StoreTimeout)
	assert.Equal(t, 2000, MaxMessageLength)
	assert.Equal(t, "rabbitmq", RealtimeBroker)
	assert.Equal(t, 1500*time.Millisecond, TypingTTL)
	assert.Equal(t, "debug", LogLevel)
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STORE_TIMEOUT", "soon")
	t.Setenv("MAX_MESSAGE_LENGTH", "lots")
	LoadConfig()

	assert.Equal(t, 5*time.Second, StoreTimeout)
	assert.Equal(t, 5000, MaxMessageLength)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
