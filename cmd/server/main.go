package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/edunigo/sprout/config"
	"github.com/edunigo/sprout/internal/catalogstore"
	"github.com/edunigo/sprout/internal/repositories/campus"
	"github.com/edunigo/sprout/internal/repositories/city"
	"github.com/edunigo/sprout/internal/repositories/country"
	"github.com/edunigo/sprout/internal/repositories/course"
	"github.com/edunigo/sprout/internal/repositories/intake"
	"github.com/edunigo/sprout/internal/repositories/lookup"
	"github.com/edunigo/sprout/internal/repositories/university"
	aiimportservice "github.com/edunigo/sprout/internal/services/aiimport"
	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/events"
	"github.com/edunigo/sprout/pkg/graph"
	"github.com/edunigo/sprout/pkg/kafka"
	"github.com/edunigo/sprout/pkg/middleware"
	"github.com/edunigo/sprout/pkg/processor"
	"github.com/edunigo/sprout/pkg/reconcile"
	aiimportroutes "github.com/edunigo/sprout/pkg/routes/aiimport"
	catalogroutes "github.com/edunigo/sprout/pkg/routes/catalog"
	"github.com/edunigo/sprout/pkg/routes/health"
	"github.com/edunigo/sprout/pkg/startup"
	"github.com/edunigo/sprout/pkg/suggest"
	"github.com/edunigo/sprout/pkg/tracing"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to bind environment variables: %v", err))
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := newTracerProvider(cfg)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	sqlxDB, err := sqlx.Open(cfg.DatabaseDriver, postgresDSN(cfg))
	if err != nil {
		fatal(logger, err, "Failed to open database connection")
	}
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	db := database.NewDatabaseInstance(sqlxDB, logger)

	countries := country.NewRepository(db, logger)
	cities := city.NewRepository(db, logger)
	universities := university.NewRepository(db, logger)
	campuses := campus.NewRepository(db, logger)
	courses := course.NewRepository(db, logger)
	intakes := intake.NewRepository(db, logger)
	lookups := lookup.NewRepository(db, logger)

	stores := catalogstore.NewFactory(logger, db, catalogstore.Repositories{
		Cities:       cities,
		Universities: universities,
		Campuses:     campuses,
		Courses:      courses,
		Intakes:      intakes,
		Lookups:      lookups,
	})

	engine := reconcile.NewEngine(logger, reconcile.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	var producer *kafka.Producer
	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		emitter = events.NewEmitter(producer, logger)
	}

	var graphClient *graph.Client
	var projector *graph.Projector
	if cfg.GraphDBEnabled {
		graphClient, err = graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			fatal(logger, err, "Failed to create graph database client")
		}
		projector = graph.NewProjector(graphClient, logger)
	}

	var suggester suggest.Suggester
	if cfg.OpenAIAPIKey != "" {
		suggester = suggest.NewOpenAISuggester(suggest.OpenAIConfig{
			APIKey:        cfg.OpenAIAPIKey,
			Model:         cfg.OpenAIModel,
			BaseURL:       cfg.OpenAIBaseURL,
			MaxCandidates: cfg.OpenAIMaxCandidates,
		}, logger)
	}

	service := aiimportservice.NewService(logger, engine, stores, suggester, emitter, projector)

	registerDependencies(logger, service, countries, cities, universities, campuses, courses, intakes, lookups)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		proc := processor.NewProcessor(processor.Config{
			AutoImport: cfg.AutoImportEnabled,
		}, service, emitter, logger)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, proc.ProcessMessage)
	}

	var graphChecker health.GraphChecker
	if graphClient != nil {
		graphChecker = graphClient
	}
	checker := health.NewChecker(sqlxDB, graphChecker, version)

	e := newEcho(cfg, logger)
	checker.RegisterRoutes(e)
	api := e.Group("/api/v1")
	aiimportroutes.Register(api.Group("/ai-import"))
	catalogroutes.Register(api.Group("/catalog"))

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		AutoRollback:        true,
	})

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&dependency{
		name: "postgres",
		start: func(ctx context.Context) error {
			if err := sqlxDB.PingContext(ctx); err != nil {
				return err
			}
			driver, err := migratepostgres.WithInstance(sqlxDB.DB, &migratepostgres.Config{})
			if err != nil {
				return err
			}
			return migrations.Migrate(cfg.DatabaseName, driver)
		},
		stop: func(ctx context.Context) error {
			return sqlxDB.Close()
		},
	})
	if graphClient != nil {
		boot.AddDependency(&dependency{
			name: "graph-db",
			start: func(ctx context.Context) error {
				return graphClient.VerifyConnectivity(ctx)
			},
			stop: func(ctx context.Context) error {
				return graphClient.Close(ctx)
			},
		})
	}
	if producer != nil {
		boot.AddDependency(&dependency{
			name: "kafka-producer",
			stop: func(ctx context.Context) error {
				return producer.Close()
			},
		})
	}
	if consumer != nil {
		boot.AddDependency(&dependency{
			name:      "kafka-consumer",
			dependsOn: []string{"postgres"},
			start: func(ctx context.Context) error {
				return consumer.Start(ctx)
			},
			stop: func(ctx context.Context) error {
				return consumer.Stop()
			},
		})
	}
	boot.AddDependency(&dependency{
		name:      "http-server",
		dependsOn: []string{"postgres"},
		start: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
					stop()
				}
			}()
			return nil
		},
		stop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})

	if err := boot.Start(ctx); err != nil {
		fatal(logger, err, "Startup failed")
	}
	checker.SetReady(true)
	logger.WithField("port", cfg.Port).Infof("%s is ready", cfg.AppName)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checker.SetReady(false)
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down tracer provider")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func newTracerProvider(cfg config.Config) *sdktrace.TracerProvider {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AppName),
		semconv.ServiceVersion(version),
	)
	return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
}

func newEcho(cfg config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)
	return e
}

func registerDependencies(
	logger ectologger.Logger,
	service *aiimportservice.Service,
	countries *country.Repository,
	cities *city.Repository,
	universities *university.Repository,
	campuses *campus.Repository,
	courses *course.Repository,
	intakes *intake.Repository,
	lookups *lookup.Repository,
) {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		fatal(logger, err, "Failed to create DI container")
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		fatal(logger, err, "Failed to register logger")
	}
	if err := ectoinject.RegisterInstance[*aiimportservice.Service](container, service); err != nil {
		fatal(logger, err, "Failed to register import service")
	}
	if err := ectoinject.RegisterInstance[*country.Repository](container, countries); err != nil {
		fatal(logger, err, "Failed to register country repository")
	}
	if err := ectoinject.RegisterInstance[*city.Repository](container, cities); err != nil {
		fatal(logger, err, "Failed to register city repository")
	}
	if err := ectoinject.RegisterInstance[*university.Repository](container, universities); err != nil {
		fatal(logger, err, "Failed to register university repository")
	}
	if err := ectoinject.RegisterInstance[*campus.Repository](container, campuses); err != nil {
		fatal(logger, err, "Failed to register campus repository")
	}
	if err := ectoinject.RegisterInstance[*course.Repository](container, courses); err != nil {
		fatal(logger, err, "Failed to register course repository")
	}
	if err := ectoinject.RegisterInstance[*intake.Repository](container, intakes); err != nil {
		fatal(logger, err, "Failed to register intake repository")
	}
	if err := ectoinject.RegisterInstance[*lookup.Repository](container, lookups); err != nil {
		fatal(logger, err, "Failed to register lookup repository")
	}
}

func postgresDSN(cfg config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
}

func fatal(logger ectologger.Logger, err error, msg string) {
	logger.WithError(err).Error(msg)
	os.Exit(1)
}
