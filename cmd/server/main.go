package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	accounthandler "pesa/internal/account/handler"
	accountmetrics "pesa/internal/account/metrics"
	accountservice "pesa/internal/account/service"
	accountmemory "pesa/internal/account/store/memory"
	accountpg "pesa/internal/account/store/postgres"
	assethandler "pesa/internal/asset/handler"
	assetservice "pesa/internal/asset/service"
	assetmemory "pesa/internal/asset/store/memory"
	assetpg "pesa/internal/asset/store/postgres"
	"pesa/internal/audit"
	auditkafka "pesa/internal/audit/kafka"
	auditmemory "pesa/internal/audit/store/memory"
	auditpg "pesa/internal/audit/store/postgres"
	authhandler "pesa/internal/auth/handler"
	authservice "pesa/internal/auth/service"
	"pesa/internal/auth/store/lockout"
	ledgerhandler "pesa/internal/ledger/handler"
	ledgermetrics "pesa/internal/ledger/metrics"
	ledgerservice "pesa/internal/ledger/service"
	"pesa/internal/ledger/store/transaction"
	"pesa/internal/platform/config"
	"pesa/internal/platform/httpserver"
	"pesa/internal/platform/logger"
	platformpg "pesa/internal/platform/postgres"
	platformredis "pesa/internal/platform/redis"
	"pesa/internal/platform/storetx"
	requesthandler "pesa/internal/request/handler"
	requestmetrics "pesa/internal/request/metrics"
	requestservice "pesa/internal/request/service"
	requestmemory "pesa/internal/request/store/memory"
	requestpg "pesa/internal/request/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise. The
	// transaction runner must be shared between the ledger and workflow
	// services either way.
	var (
		accounts     accountservice.Store
		transactions ledgerservice.TransactionStore
		requests     requestservice.RequestStore
		resources    assetservice.Store
		auditStore   audit.Store
		runner       ledgerservice.StoreTx
	)

	if cfg.DatabaseURL != "" {
		db, err := platformpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := platformpg.EnsureSchema(ctx, db); err != nil {
			return err
		}
		accounts = accountpg.New(db.DB)
		transactions = transaction.NewPostgres(db.DB)
		requests = requestpg.New(db.DB)
		resources = assetpg.New(db.DB)
		auditStore = auditpg.New(db.DB)
		runner = db
		log.Info("using postgres stores")
	} else {
		accounts = accountmemory.NewInMemory()
		transactions = transaction.NewInMemory()
		requests = requestmemory.NewInMemory()
		resources = assetmemory.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		runner = storetx.NewMemory()
		log.Info("using in-memory stores")
	}

	// Lockout counter: Redis when configured, else per-instance memory.
	var lockouts authservice.LockoutStore = lockout.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		lockouts = lockout.NewRedis(redisClient)
		log.Info("using redis lockout store")
	}

	// Audit pipeline: channel publisher drained into the store, optionally
	// teeing to Kafka when brokers are configured.
	publisher := audit.NewChannelPublisher(256, log)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)

	var auditSink audit.Publisher = publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := auditkafka.NewPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer func() {
			// Drain buffered records before closing; produce is asynchronous.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaPub.Flush(flushCtx); err != nil {
				log.Error("audit kafka flush failed", "error", err)
			}
			kafkaPub.Close()
		}()
		auditSink = audit.Tee(publisher, kafkaPub)
		log.Info("audit events mirrored to kafka", "topic", cfg.AuditTopic)
	}

	// Services.
	accountSvc := accountservice.New(accounts, runner,
		accountservice.WithLogger(log),
		accountservice.WithAuditPublisher(auditSink),
		accountservice.WithMetrics(accountmetrics.New()),
		accountservice.WithTransactionLog(transactions),
	)
	ledgerSvc := ledgerservice.New(accounts, transactions, runner,
		ledgerservice.WithLogger(log),
		ledgerservice.WithAuditPublisher(auditSink),
		ledgerservice.WithMetrics(ledgermetrics.New()),
	)
	requestSvc := requestservice.New(requests, accounts, resources, transactions, runner,
		requestservice.WithLogger(log),
		requestservice.WithAuditPublisher(auditSink),
		requestservice.WithMetrics(requestmetrics.New()),
	)
	assetSvc := assetservice.New(resources, assetservice.WithLogger(log))

	tokens := authservice.NewTokenService([]byte(cfg.JWTSigningKey), cfg.TokenTTL)
	authSvc := authservice.New(accounts, lockouts, tokens,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditSink),
	)

	router := newRouter(routerDeps{
		logger:   log,
		tokens:   tokens,
		accounts: accounthandler.New(accountSvc, log),
		auth:     authhandler.New(authSvc, log),
		ledger:   ledgerhandler.New(ledgerSvc, log),
		requests: requesthandler.New(requestSvc, log),
		assets:   assethandler.New(assetSvc, log),
	})

	server := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
