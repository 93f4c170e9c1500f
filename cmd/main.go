package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Shopify/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/habitloop/chat-service/internal/notify"
	"github.com/habitloop/chat-service/internal/server"
	storage "github.com/habitloop/chat-service/internal/storages"
	usecase "github.com/habitloop/chat-service/internal/usecases"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func initLogger(level string) *logrus.Logger {

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: true,
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.
			WithField("log_level", level).
			Warning("specified invalid log level")
	} else {
		logger.SetLevel(logLevel)
		logger.
			WithField("log_level", level).
			Infof("specified %s log level", logLevel.String())
	}

	return logger
}

func initDB(dsn string, logger *logrus.Logger) *sqlx.DB {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		logger.Fatalf("can't connect to database: %s", err.Error())
	}

	err = db.Ping()

	if err != nil {
		logger.Fatalf("database ping failed: %s", err.Error())
	}

	logger.Info("successfully connected to database")
	return db
}

func kafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Timeout = 10 * time.Second
	config.Producer.Return.Successes = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	return config
}

func kafkaBrokers(logger *logrus.Logger) []string {
	brokers := viper.GetString("KAFKA_BROKERS")
	if len(brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS environment variable must be defined")
	}
	return strings.Split(brokers, ",")
}

func initProducer(logger *logrus.Logger) sarama.SyncProducer {
	producer, err := sarama.NewSyncProducer(kafkaBrokers(logger), kafkaConfig())

	if err != nil {
		logger.WithError(err).Fatal("can't create producer")
	}

	return producer
}

func initConsumerGroup(logger *logrus.Logger) sarama.ConsumerGroup {
	groupId := viper.GetString("CONSUMER_GROUP")
	if groupId == "" {
		groupId = "chat-service-notifier"
	}

	group, err := sarama.NewConsumerGroup(kafkaBrokers(logger), groupId, kafkaConfig())
	if err != nil {
		logger.WithError(err).Fatal("can't create consumer group")
	}

	return group
}

func initExpirySweep(invites *usecase.InvitesUsecase, logger *logrus.Logger) *cron.Cron {
	ttl := viper.GetDuration("INVITE_TTL")
	if ttl == 0 {
		ttl = 14 * 24 * time.Hour
	}

	schedule := cron.New()
	_, err := schedule.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		count, err := invites.ExpireStale(ctx, ttl)
		if err != nil {
			logger.WithError(err).Error("invite expiry sweep failed")
			return
		}
		if count > 0 {
			logger.WithField("count", count).Info("expired stale invites")
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("can't schedule invite expiry sweep")
	}

	return schedule
}

func main() {
	viper.AutomaticEnv()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var host string
	var port int
	var logLevel string

	flag.IntVar(&port, "port", 80, "port on which server will be started")
	flag.StringVar(&host, "host", "0.0.0.0", "host on which server will be started")
	flag.StringVar(&logLevel, "log", "info", "log level")

	flag.Parse()

	logger := initLogger(logLevel)

	db := initDB(viper.GetString("DB_DSN"), logger)
	defer func(db *sqlx.DB) {
		err := db.Close()
		if err != nil {
			logger.Errorf("during db connection close an error occurred: %s", err.Error())
		}
	}(db)

	producer := initProducer(logger)
	defer producer.Close()

	updatesTopic := viper.GetString("UPDATES_TOPIC")
	if updatesTopic == "" {
		logger.Fatal("UPDATES_TOPIC environment variable must be defined")
	}

	store := storage.NewRegistry(db, producer, &storage.UpdatesStoreConfig{
		UpdatesTopic: updatesTopic,
	})

	rooms := usecase.NewRoomsUsecase(store)
	invites := usecase.NewInvitesUsecase(store, logger)
	messages := usecase.NewMessagesUsecase(store)
	profiles := usecase.NewProfilesUsecase(store)

	hub := notify.NewHub(logger)
	group := initConsumerGroup(logger)
	defer group.Close()

	consumer := notify.NewConsumer(group, updatesTopic, hub, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("updates consumer stopped")
		}
	}()

	sweep := initExpirySweep(invites, logger)
	sweep.Start()
	defer sweep.Stop()

	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET environment variable must be defined")
	}

	validate := validator.New()
	srv := server.NewServer(rooms, invites, messages, profiles, hub, validate, logger)

	address := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: srv.Router([]byte(jwtSecret)),
	}

	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		sig := <-osSignal
		logger.Infof("%s caught. Gracefully shutdown", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
		cancel()
	}()

	logger.Infof("start listening on %s", address)
	err := httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http serving error: %s", err.Error())
	}
}
