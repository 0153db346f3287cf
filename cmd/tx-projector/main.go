package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	config "tx-gateway/config"
	kafka "tx-gateway/kafka"
	logger "tx-gateway/logger"
	mongodb "tx-gateway/repositories/mongodb"
	redis "tx-gateway/repositories/redis"
	projector "tx-gateway/services/projector"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	appKonf = config.LoadSecrets(appKonf)
	if err = appKonf.ValidateProjector(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	lgr, err := logger.New(appKonf.Logger.Level, appKonf.Kafka.ConsumerName)
	if err != nil {
		log.Fatalf("cannot create logger: %v", err)
	}
	defer func() {
		_ = lgr.Sync()
	}()

	if !appKonf.Kafka.Consume {
		lgr.Info("ledger event consumption is disabled, nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
	if err != nil {
		lgr.Fatal("cannot create mongo client", zap.Error(err))
	}

	// Redis Connection
	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		lgr.Fatal("cannot create redis client", zap.Error(err))
	}

	eventRepo := mongodb.NewLedgerEventRepository(mongoClient, appKonf.Mongo.Database)
	if err = eventRepo.EnsureIndexes(ctx); err != nil {
		lgr.Fatal("cannot create ledger event indexes", zap.Error(err))
	}
	dlQueue := redis.NewDeadLetterQueue(redisClient, lgr, appKonf.Kafka.DLQList)
	ledgerProjector := projector.NewLedgerProjector(lgr, eventRepo)

	metrics := kprom.NewMetrics("projector")
	conf := &kafka.ConsumerConfig{
		Brokers:        appKonf.Kafka.Brokers,
		Name:           appKonf.Kafka.ConsumerName,
		Topic:          appKonf.Kafka.Topic,
		RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
	}

	consumer, err := kafka.NewConsumer(conf, lgr, ledgerProjector, dlQueue, metrics)
	if err != nil {
		lgr.Fatal("cannot create ledger event consumer", zap.Error(err))
	}

	err = consumer.Poll(ctx)
	if err != nil && ctx.Err() == nil {
		lgr.Fatal("cannot poll records from topic", zap.Error(err))
	}
	lgr.Info("ledger projector stopped")
}
