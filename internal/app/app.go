package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/postforge/postforge/internal/bot"
	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/db"
	"github.com/postforge/postforge/internal/generate"
	adminapi "github.com/postforge/postforge/internal/http/api/admin"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/ratelimit"
	internalsettings "github.com/postforge/postforge/internal/settings"
	"github.com/postforge/postforge/internal/usage"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful HTTP server shutdown.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	conn, errOpen := db.Open(resolveDSN(configPath))
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the bot and the admin API against a shared database.
// It blocks until the context is cancelled or a component fails.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	conn, errOpen := db.Open(resolveDSN(configPath))
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := EnsureAdmin(conn); errSeed != nil {
		return errSeed
	}

	settingsStore := internalsettings.NewStore(conn)
	if errRefresh := settingsStore.Refresh(ctx); errRefresh != nil {
		return errRefresh
	}
	settingsStore.Start(ctx)

	botCfg, errBot := config.LoadBotConfig(configPath)
	if errBot != nil {
		return errBot
	}
	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}

	lockTTL := time.Duration(settingsStore.Int(internalsettings.LockTTLSecondsKey, internalsettings.DefaultLockTTLSeconds)) * time.Second
	ldg := ledger.New(conn, botCfg.AdminChatIDs, ledger.WithLockTTL(lockTTL))

	genOpts := []generate.Option{
		generate.WithModel(settingsStore.String(internalsettings.GenerationModelKey, internalsettings.DefaultGenerationModel)),
	}
	if botCfg.AIBaseURL != "" {
		genOpts = append(genOpts, generate.WithBaseURL(botCfg.AIBaseURL))
	}
	genClient := generate.NewClient(botCfg.AIAPIKey, genOpts...)

	recorder := usage.NewRecorder(conn)
	limits := ratelimit.NewManager(ratelimit.ProviderFromStore(settingsStore), nil, nil)

	api, errAPI := tgbotapi.NewBotAPI(botCfg.Token)
	if errAPI != nil {
		return fmt.Errorf("app: connect telegram: %w", errAPI)
	}

	tgBot, errNew := bot.New(api, conn, ldg, genClient, recorder, limits, botCfg.AdminChatIDs)
	if errNew != nil {
		return errNew
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	adminapi.RegisterAdminRoutes(engine, conn, jwtCfg, ldg, settingsStore)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		log.Infof("app: admin api listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- fmt.Errorf("app: admin api: %w", errServe)
			return
		}
		errCh <- nil
	}()
	go func() {
		if errRun := tgBot.Run(runCtx); errRun != nil && !errors.Is(errRun, context.Canceled) {
			errCh <- fmt.Errorf("app: bot: %w", errRun)
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case <-runCtx.Done():
	case runErr = <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		log.WithError(errShutdown).Warn("app: admin api shutdown failed")
	}
	return runErr
}

// resolveDSN picks the configured database DSN, defaulting to a local
// SQLite file when nothing is configured.
func resolveDSN(configPath string) string {
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN == nil {
		return dsn
	}
	if errors.Is(errDSN, config.ErrMissingDatabaseDSN) || errors.Is(errDSN, fs.ErrNotExist) {
		log.Infof("app: no database dsn configured, using %s", config.DefaultSQLiteDSN)
		return config.DefaultSQLiteDSN
	}
	log.WithError(errDSN).Warnf("app: database dsn unavailable, using %s", config.DefaultSQLiteDSN)
	return config.DefaultSQLiteDSN
}
