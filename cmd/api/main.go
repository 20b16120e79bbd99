package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/trailblaize/outreach-engine/internal/config"
	gateway "github.com/trailblaize/outreach-engine/internal/gateways"
	"github.com/trailblaize/outreach-engine/internal/handlers"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/queue"
	"github.com/trailblaize/outreach-engine/internal/repository"
	"github.com/trailblaize/outreach-engine/internal/services"
	xhttp "github.com/trailblaize/outreach-engine/pkg/http"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/pg"
	"github.com/trailblaize/outreach-engine/pkg/prom"
	"github.com/trailblaize/outreach-engine/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	host, _ := os.Hostname()
	if err := prom.Create(host, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to register metrics", "error", err)
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	eventQueue, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().EventStreamName,
		ConsumerGroup:     config.Get().EventConsumerGroup,
		ConsumerName:      config.Get().EventConsumerName,
		MaxRetries:        config.Get().EventMaxRetries,
		VisibilityTimeout: config.Get().EventVisibilityTimeout,
		PollInterval:      config.Get().EventPollInterval,
		BatchSize:         config.Get().EventBatchSize,
		MaxLen:            config.Get().EventMaxLen,
		EnableDLQ:         config.Get().EventEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating event queue", "error", err)
		return
	}

	lines, err := model.NewLines(
		config.Get().OutreachLineLabels,
		config.Get().OutreachLinePhones,
		config.Get().OutreachLineDailyLimits,
	)
	if err != nil {
		logger.Error("invalid sending line configuration", "error", err)
		return
	}

	messenger, err := gateway.NewClient(&gateway.Config{
		BaseURL:    config.Get().LinqApiUrl,
		Token:      config.Get().LinqApiToken,
		Timeout:    config.Get().LinqRequestTimeout,
		MaxRetries: config.Get().LinqMaxRetries,
		RetryDelay: config.Get().LinqRetryDelay,
	})
	if err != nil {
		logger.Error("failed creating messenger client", "error", err)
		return
	}

	contactRepo := repository.NewContactRepository(db)
	queueRepo := repository.NewQueueEntryRepository(db)

	// services
	outreachService, err := services.NewOutreachService(lines, contactRepo, queueRepo, messenger, eventQueue)
	if err != nil {
		logger.Error("failed creating outreach service", "error", err)
		return
	}
	importService := services.NewImportService(contactRepo, outreachService)

	// handlers
	handlers.NewOutreachHandler(outreachService).RegisterRoutes(s)
	handlers.NewContactsHandler(importService).RegisterRoutes(s)
	handlers.NewHealthHandler().RegisterRoutes(s)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	logger.Info("api is up", "version", version, "commit", commit, "build_date", date)

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
