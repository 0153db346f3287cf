package main

import (
	// Go Internal Packages
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	api "tx-gateway/api"
	config "tx-gateway/config"
	kafka "tx-gateway/kafka"
	logger "tx-gateway/logger"
	memory "tx-gateway/repositories/memory"
	mongodb "tx-gateway/repositories/mongodb"
	postgres "tx-gateway/repositories/postgres"
	redis "tx-gateway/repositories/redis"
	gateway "tx-gateway/services/gateway"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

var (
	configPath = kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	seed       = kingpin.Flag("seed", "Insert the demo transactions on startup").Bool()
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
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

	// Update and Validate config before starting the server
	appKonf = config.LoadSecrets(appKonf)
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	lgr, err := logger.New(appKonf.Logger.Level, appKonf.Application)
	if err != nil {
		log.Fatalf("cannot create logger: %v", err)
	}
	defer func() {
		_ = lgr.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newStore(ctx, appKonf, lgr)

	var locker gateway.Locker = memory.NewKeyedMutex()
	var idem api.IdempotencyStore = memory.NewIdempotencyRepository()
	if appKonf.Redis.Enabled {
		redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
		if err != nil {
			lgr.Fatal("cannot create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		locker = redis.NewLocker(redisClient, lgr, appKonf.Redis.LockExpiry, appKonf.Redis.LockTries)
		idem = redis.NewIdempotencyRepository(redisClient, appKonf.Redis.IdempotencyTTL)
	}

	// publisher stays a nil interface when publishing is off
	var publisher gateway.EventPublisher
	metrics := kprom.NewMetrics("gateway")
	if appKonf.Kafka.Publish {
		producer, err := kafka.NewProducer(appKonf.Kafka.Brokers, appKonf.Kafka.Topic, lgr, metrics)
		if err != nil {
			lgr.Fatal("cannot create ledger event producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
	}

	if *seed {
		n, err := gateway.Seed(ctx, store, time.Now())
		if err != nil {
			lgr.Fatal("cannot seed transactions", zap.Error(err))
		}
		lgr.Info("seeded demo transactions", zap.Int("created", n))
	}

	svc := gateway.NewService(lgr, store, publisher, gateway.Settings{
		Blacklist:     appKonf.Gateway.Blacklist,
		StrictCapture: appKonf.Gateway.StrictCapture,
	})
	handler := api.NewHandler(gateway.NewSerialized(svc, locker), idem, lgr)
	router := api.NewRouter(handler)
	router.Handle("/metrics/kafka", metrics.Handler())

	server := &http.Server{
		Addr:         appKonf.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  appKonf.HTTP.ReadTimeout,
		WriteTimeout: appKonf.HTTP.WriteTimeout,
	}

	go func() {
		lgr.Info("starting http server", zap.String("addr", appKonf.HTTP.Addr), zap.String("store", appKonf.Store.Driver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lgr.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lgr.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lgr.Error("http server shutdown failed", zap.Error(err))
	}
}

// newStore connects the transaction store selected by store.driver
func newStore(ctx context.Context, appKonf config.Config, lgr *zap.Logger) gateway.TransactionStore {
	switch appKonf.Store.Driver {
	case config.DriverMongo:
		mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
		if err != nil {
			lgr.Fatal("cannot create mongo client", zap.Error(err))
		}
		return mongodb.NewTxRepository(mongoClient, appKonf.Mongo.Database)
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, appKonf.Postgres.DSN)
		if err != nil {
			lgr.Fatal("cannot create postgres pool", zap.Error(err))
		}
		return postgres.NewTxRepository(pool)
	default:
		return memory.NewTxRepository()
	}
}
