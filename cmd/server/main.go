package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-catalog/internal/config"
	"github.com/iliyamo/game-catalog/internal/database"
	"github.com/iliyamo/game-catalog/internal/handler"
	"github.com/iliyamo/game-catalog/internal/logging"
	"github.com/iliyamo/game-catalog/internal/queue"
	"github.com/iliyamo/game-catalog/internal/repository"
	"github.com/iliyamo/game-catalog/internal/router"
	"github.com/iliyamo/game-catalog/internal/service"
	"github.com/iliyamo/game-catalog/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	codec, err := utils.NewTokenCodec(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)

	var events service.Publisher = queue.Nop{}
	if cfg.AMQP.Enabled {
		pub := queue.NewPublisher(cfg.AMQP.URL, log)
		defer pub.Close()
		events = pub
		if cfg.AMQP.Consume {
			go func() {
				_ = queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.AuditLogPath, log).Run(ctx)
			}()
		}
	}

	rdb := config.NewRedisClient(cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	store := repository.NewMySQL(db)
	deps := service.Deps{Stores: store.Stores(), Tx: store, Events: events, Log: log}
	auth, err := service.NewAuthService(deps, hasher, codec)
	if err != nil {
		return err
	}
	if cfg.SeedAdmin() {
		if _, err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	e := router.New(router.Deps{
		Log:       log,
		Codec:     codec,
		Users:     deps.Stores.Users,
		DB:        db,
		Redis:     rdb,
		RateLimit: cfg.RateLimit,
		Cache:     cfg.Cache,
		Auth:      handler.NewAuthHandler(auth),
		User:      handler.NewUserHandler(service.NewUserService(deps, hasher)),
		Profile:   handler.NewProfileHandler(service.NewProfileService(deps)),
		Library:   handler.NewLibraryHandler(service.NewLibraryService(deps)),
		Catalog:   handler.NewCatalogHandler(service.NewCatalogService(deps)),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
