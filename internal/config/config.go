package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/trailblaize/outreach-engine/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every env-driven setting of the engine. Only this struct
// must be used to read configuration values, no direct access to env,
// ini or any other config source should be made elsewhere.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"outreach_engine"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr            string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout     int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout    int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`
	HttpServerReadBufferSize  int    `env:"HTTP_SERVER_READ_BUFFER_SIZE"`
	HttpServerWriteBufferSize int    `env:"HTTP_SERVER_WRITE_BUFFER_SIZE"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel string `env:"LOG_LEVEL"`

	EventStreamName        string        `env:"EVENT_STREAM_NAME" default:"outreach:send-events"`
	EventConsumerGroup     string        `env:"EVENT_CONSUMER_GROUP" default:"recorder"`
	EventConsumerName      string        `env:"EVENT_CONSUMER_NAME" default:"recorder-1"`
	EventMaxRetries        int           `env:"EVENT_MAX_RETRIES" default:"3"`
	EventVisibilityTimeout time.Duration `env:"EVENT_VISIBILITY_TIMEOUT" default:"30s"`
	EventPollInterval      time.Duration `env:"EVENT_POLL_INTERVAL" default:"100ms"`
	EventBatchSize         int64         `env:"EVENT_BATCH_SIZE" default:"10"`
	EventMaxLen            int64         `env:"EVENT_MAX_LEN" default:"100000"`
	EventEnableDLQ         bool          `env:"EVENT_ENABLE_DLQ" default:"1"`

	LinqApiUrl            string        `env:"LINQ_API_URL"`
	LinqApiToken          string        `env:"LINQ_API_TOKEN"`
	LinqRequestTimeout    time.Duration `env:"LINQ_REQUEST_TIMEOUT" default:"10s"`
	LinqMaxRetries        int           `env:"LINQ_MAX_RETRIES" default:"2"`
	LinqRetryDelay        time.Duration `env:"LINQ_RETRY_DELAY" default:"200ms"`

	// Comma-separated, index-aligned definitions of the sending lines.
	OutreachLineLabels      []string `env:"OUTREACH_LINE_LABELS"`
	OutreachLinePhones      []string `env:"OUTREACH_LINE_PHONES"`
	OutreachLineDailyLimits []int    `env:"OUTREACH_LINE_DAILY_LIMITS"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	if c.LogLevel != "" {
		if err := logger.SetLevel(c.LogLevel); err != nil {
			logger.Warn("ignoring invalid LOG_LEVEL", "value", c.LogLevel, "error", err)
		}
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
