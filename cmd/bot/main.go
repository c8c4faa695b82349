package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/app"
	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/config"
	"github.com/Freeeeeet/coderelay_bot/internal/controller"
	"github.com/Freeeeeet/coderelay_bot/internal/credential"
	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/notify"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
	"github.com/Freeeeeet/coderelay_bot/internal/repository"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
	"github.com/Freeeeeet/coderelay_bot/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting coderelay bot",
		zap.String("environment", cfg.Environment),
		zap.String("db_driver", cfg.DBDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// ============ Хранилище ============

	db, err := app.OpenDatabase(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := app.NewMigrator(db.DB, db.Driver, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}

	passphrase, err := credential.LoadPassphrase(cfg.EncryptionKey, credential.Options{
		Backend:  cfg.Keyring.Backend,
		Dir:      cfg.Keyring.Dir,
		Password: cfg.Keyring.Password,
	})
	if err != nil {
		return err
	}
	cipher, err := vault.New(passphrase)
	if err != nil {
		return err
	}

	// ============ Почта и лимиты ============

	clk := clock.Real()

	providers, err := mailbox.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return err
	}
	dialer := mailbox.NewIMAPDialer(cfg.Mailbox.ConnectTimeout, cfg.Mailbox.SessionTimeout)
	retriever := mailbox.NewRetriever(dialer, providers, clk, cfg.Mailbox.Options(), logger)

	limiter := ratelimit.NewLimiter(clk, cfg.RateLimits, cfg.RateLimitSweep)

	// ============ Telegram ============

	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}
	notifier := notify.NewTelegram(botInstance, logger)

	// ============ Сервисы ============

	userRepo := repository.NewUserRepository(db.DB)
	permRepo := repository.NewPermissionRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)

	userService := service.NewUserService(userRepo, permRepo, auditRepo, providers, retriever, cipher, limiter, notifier, clk, logger)
	delegationService := service.NewDelegationService(permRepo, userRepo, auditRepo, limiter, notifier, clk, logger)
	codeService := service.NewCodeService(userRepo, auditRepo, delegationService, retriever, cipher, limiter, notifier, clk, logger)

	botController := controller.NewBotController(botInstance, userService, delegationService, codeService, clk, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// меню команд не критично
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	// ============ Health ============

	if cfg.HealthAddr != "" {
		health := app.NewHealthServer(cfg.HealthAddr, db, logger)
		health.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := health.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Health server shutdown failed", zap.Error(err))
			}
		}()
	}

	logger.Info("✅ Bot is ready",
		zap.Int("mail_domains", len(providers.Domains())),
	)

	return botController.Start(ctx)
}
