package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/infrastructure"
	"github.com/vitovidale/video-publisher-service/infrastructure/config"
	"github.com/vitovidale/video-publisher-service/infrastructure/llm"
	"github.com/vitovidale/video-publisher-service/infrastructure/metrics"
	"github.com/vitovidale/video-publisher-service/infrastructure/notification"
	"github.com/vitovidale/video-publisher-service/infrastructure/publish"
	"github.com/vitovidale/video-publisher-service/infrastructure/queue"
	"github.com/vitovidale/video-publisher-service/infrastructure/recordstore"
	"github.com/vitovidale/video-publisher-service/infrastructure/storage"
	"github.com/vitovidale/video-publisher-service/infrastructure/transcription"
	"github.com/vitovidale/video-publisher-service/repository"
	"github.com/vitovidale/video-publisher-service/usecase"
)

const (
	connectAttempts = 5
	connectDelay    = 5 * time.Second
)

func initDB(cfg config.DBConfig) *sqlx.DB {
	var err error
	for i := 0; i < connectAttempts; i++ {
		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			log.Println("Connected to PostgreSQL")
			return db
		}
		log.Printf("Retrying database connection in %s... (%d/%d)", connectDelay, i+1, connectAttempts)
		time.Sleep(connectDelay)
	}
	log.Fatalf("Could not connect to the database after %d attempts: %v", connectAttempts, err)
	return nil
}

// initRecordStore picks the record backend and returns the health checks it supports.
func initRecordStore(cfg *config.Config) (domain.RecordStore, []infrastructure.HealthCheck, func()) {
	switch cfg.RecordStoreDriver {
	case "postgres":
		db := initDB(cfg.DB)
		store := recordstore.NewPostgresStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to prepare record schema: %v", err)
		}
		check := infrastructure.HealthCheck{Name: "database", Check: db.PingContext}
		return store, []infrastructure.HealthCheck{check}, func() { db.Close() }
	case "memory":
		log.Println("WARNING: Using the in-memory record store; records are lost on restart")
		return recordstore.NewMemoryStore(), nil, func() {}
	default:
		store := recordstore.NewHTTPStore(recordstore.HTTPConfig{
			BaseURL: cfg.RecordAPIBaseURL,
			APIKey:  cfg.RecordAPIKey,
		})
		return store, nil, func() {}
	}
}

func rabbitMQCheck(conn *amqp.Connection) infrastructure.HealthCheck {
	return infrastructure.HealthCheck{Name: "rabbitmq", Check: func(context.Context) error {
		if conn == nil || conn.IsClosed() {
			return fmt.Errorf("disconnected")
		}
		ch, err := conn.Channel()
		if err != nil {
			return err
		}
		return ch.Close()
	}}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, checks, closeStore := initRecordStore(cfg)
	defer closeStore()

	rabbitMQConn, err := queue.Dial(cfg.RabbitMQ.URL(), connectAttempts, connectDelay)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer rabbitMQConn.Close()
	checks = append(checks, rabbitMQCheck(rabbitMQConn))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.New("video_publisher", registry)

	videos := repository.NewVideoRepository(store)
	transcriptions := repository.NewTranscriptionRepository(store)
	social := repository.NewSocialRepository(store)

	files := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	provider := transcription.NewAssemblyAIClient(transcription.Config{
		BaseURL:       cfg.AssemblyAIBaseURL,
		APIKey:        cfg.AssemblyAIKey,
		WebhookURL:    cfg.WebhookURL(),
		WebhookSecret: cfg.WebhookSecret,
		WebhookHeader: cfg.WebhookHeader,
	})
	generator := llm.NewGroqGenerator(llm.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
	})
	notifier := notification.NewLogNotifier(nil)
	publishers := publish.NewRegistryFromEndpoints(
		cfg.PublishEndpoints,
		publish.NewSimulatedPublisher(cfg.SimulatedFailureRate, cfg.SimulatedPublishLatency, nil),
	)

	processVideo := &usecase.ProcessVideoUseCase{
		Videos:         videos,
		Transcriptions: transcriptions,
		Provider:       provider,
		ProviderName:   transcription.ProviderName,
		FileStorage:    files,
		Metrics:        pipelineMetrics,
		Notifier:       notifier,
	}
	consumer := queue.NewRabbitMQConsumer(rabbitMQConn, cfg.RabbitMQ.Queue)
	go func() {
		if err := consumer.Start(context.Background(), processVideo.Execute); err != nil {
			log.Fatalf("Transcription request consumer stopped: %v", err)
		}
	}()

	handlers := &infrastructure.VideoHandlers{
		UploadVideoUC: &usecase.UploadVideoUseCase{
			Videos:        videos,
			MessageQueue:  queue.NewRabbitMQProducer(rabbitMQConn, cfg.RabbitMQ.Queue),
			FileStorage:   files,
			Metrics:       pipelineMetrics,
			MaxUploadSize: cfg.MaxUploadSize,
		},
		ListVideosUC:  &usecase.ListVideosUseCase{Videos: videos},
		GetVideoUC:    &usecase.GetVideoUseCase{Videos: videos, Transcriptions: transcriptions, Social: social},
		DeleteVideoUC: &usecase.DeleteVideoUseCase{Videos: videos, FileStorage: files},
		PublishVideoUC: &usecase.PublishVideoUseCase{
			Videos:         videos,
			Transcriptions: transcriptions,
			Social:         social,
			Publisher:      publishers,
			FileStorage:    files,
			Metrics:        pipelineMetrics,
		},
		TranscriptionWebhookUC: &usecase.TranscriptionWebhookUseCase{
			Videos:         videos,
			Transcriptions: transcriptions,
			Provider:       provider,
			Generator:      generator,
			Metrics:        pipelineMetrics,
			Notifier:       notifier,
		},
		TranscriptionStatusUC: &usecase.GetTranscriptionStatusUseCase{Provider: provider},
		WebhookSecret:         cfg.WebhookSecret,
		WebhookHeader:         cfg.WebhookHeader,
		MaxUploadSize:         cfg.MaxUploadSize,
	}

	router := infrastructure.NewRouter(handlers, infrastructure.RouterOptions{
		JWTSecret: cfg.JWTSecret,
		UploadDir: cfg.UploadDir,
		Metrics:   pipelineMetrics,
		Gatherer:  registry,
		Health:    infrastructure.HealthHandler(checks...),
	})

	log.Printf("Video Publisher Service listening on :%s...", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
