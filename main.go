package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lmsrmarket/engine"
	"lmsrmarket/logger"
	"lmsrmarket/middleware"
	"lmsrmarket/server"
	"lmsrmarket/setup"
	"lmsrmarket/util"
)

func main() {
	env, err := setup.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	econ, err := setup.LoadEconomicsConfig()
	if err != nil {
		log.Fatalf("Failed to load setup.yaml: %v", err)
	}
	env.Apply(econ)

	zlog, err := logger.New(env.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := util.OpenDB(env.DBDriver, env.DBDSN)
	if err != nil {
		zlog.Fatal("failed to open database", zap.String("driver", env.DBDriver), zap.Error(err))
	}

	eng := engine.New(db, econ, zlog)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrapAdmin(ctx, eng, env); err != nil {
		zlog.Fatal("failed to create admin account", zap.Error(err))
	}
	recovered, err := eng.RecoverSettlements(ctx)
	if err != nil {
		zlog.Fatal("failed to recover pending settlements", zap.Error(err))
	}
	if recovered > 0 {
		zlog.Info("recovered pending settlements", zap.Int("count", recovered))
	}

	router, err := server.NewRouter(eng, server.Config{
		SigningKey:     []byte(env.JWTSigningKey),
		AdminUsername:  env.AdminUsername,
		AllowedOrigins: env.CORSAllowedOrigins,
	})
	if err != nil {
		zlog.Fatal("failed to build router", zap.Error(err))
	}
	srv := server.New(env.ListenAddr, router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Error("shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("market listening",
		zap.String("addr", env.ListenAddr),
		zap.Float64("liquidity", econ.Market.Liquidity),
		zap.String("env", env.AppEnv),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

// bootstrapAdmin creates the admin account named in the environment if it
// does not exist yet.
func bootstrapAdmin(ctx context.Context, eng *engine.Engine, env *setup.Env) error {
	if env.AdminUsername == "" || env.AdminPassword == "" {
		return nil
	}
	if _, err := eng.AccountByUsername(ctx, env.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, engine.ErrAccountNotFound) {
		return err
	}

	hash, err := middleware.HashPassword(env.AdminPassword)
	if err != nil {
		return err
	}
	_, err = eng.OpenAccount(ctx, env.AdminUsername, hash, true)
	return err
}
