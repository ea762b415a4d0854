package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/chat/discord"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/engine"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/gate"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra/auth"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/journal"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/notify"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/ops"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/panel"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/session"
	storepg "github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/store/postgres"

	"github.com/avast/retry-go/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Контекст жизненного цикла фоновых горутин: cancel() останавливает
	// слушателей при SIGTERM
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scopes := make([]string, 0, len(cfg.Panels))
	for name := range cfg.Panels {
		scopes = append(scopes, name)
	}

	// 2. Инфраструктура: Postgres и Redis (стартовые пинги с ретраями —
	// зависимости могут подниматься позже процесса)
	store, err := storepg.New(appCtx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("postgres init", zap.Error(err))
	}
	defer store.Close()

	startupRetry := retry.New(
		retry.Context(appCtx),
		retry.Attempts(10),
		retry.Delay(time.Second),
	)
	if err := startupRetry.Do(func() error { return store.Ping(appCtx) }); err != nil {
		logger.Fatal("postgres unreachable", zap.Error(err))
	}
	if err := store.Bootstrap(appCtx); err != nil {
		logger.Fatal("schema bootstrap", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close() //nolint:errcheck

	// 3. Control plane: переключатель обслуживания панелей
	maint := engine.NewMaintenanceManager(rdb, logger)
	if err := startupRetry.Do(func() error { return maint.Init(appCtx) }); err != nil {
		logger.Fatal("maintenance manager init", zap.Error(err))
	}
	go maint.StartListener(appCtx)

	// 4. Журнал действий (асинхронная пакетная запись)
	jrnl := journal.New(store, logger,
		cfg.Engine.JournalBufferSize,
		cfg.Engine.JournalBatchSize,
		cfg.Engine.JournalFlushInterval,
	)
	// Метрики
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	jrnl.ObserveBuffer(metrics.JournalBufferFill)
	jrnl.Start()
	defer jrnl.Stop()

	// 5. Панельный адаптер + защита (лимитер и предохранитель, без ретраев)
	panelClient := panel.NewClient(cfg.Panels, cfg.Engine.PanelTimeout, logger)
	safePanels := panel.NewReliabilityWrapper(panelClient, cfg.Engine)

	// 6. Ядро: Discord-сессия, fanout и оркестратор
	dsession, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		logger.Fatal("discord init", zap.Error(err))
	}
	messenger := discord.NewMessenger(dsession)
	fanout := notify.NewFanout(messenger, store, logger)

	orch := engine.NewOrchestrator(
		safePanels,
		store,
		gate.New(cfg.Discord.Admins),
		session.NewManager(logger),
		fanout,
		maint,
		jrnl,
		metrics,
		logger,
		scopes,
		cfg.Engine.SessionTimeout,
	)
	bot := discord.NewBot(dsession, orch, cfg.Discord.Prefix, logger)

	if err := bot.Start(); err != nil {
		logger.Fatal("discord gateway", zap.Error(err))
	}
	defer bot.Stop() //nolint:errcheck

	// 7. Консоль оператора (health, metrics, read-only API)
	publicKey, err := auth.ParseRSAPublicKey(cfg.Ops.PublicKey)
	if err != nil {
		logger.Fatal("ops public key", zap.Error(err))
	}
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Ops.PrivateKey)
	if err != nil {
		logger.Fatal("ops private key", zap.Error(err))
	}

	opsServer := ops.NewServer(
		logger,
		ops.NewTokenIssuer(cfg.Ops, privateKey),
		auth.NewValidator(publicKey),
		store,
		maint,
		scopes,
		reg,
	)
	srv := &http.Server{
		Addr:         cfg.Ops.Addr,
		Handler:      opsServer,
		ReadTimeout:  cfg.Ops.ReadTimeout,
		WriteTimeout: cfg.Ops.WriteTimeout,
	}
	go func() {
		logger.Info("ops console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops console", zap.Error(err))
		}
	}()

	// 8. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("deploy bot started", zap.Strings("panels", scopes))
	<-stop
	logger.Info("deploy bot stopping")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops shutdown", zap.Error(err))
	}
	logger.Info("deploy bot exited properly")
}
