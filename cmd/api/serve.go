package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	httpadp "tuichain-backend/internal/adapter/http"
	"tuichain-backend/internal/adapter/repository/sqlstore"
	"tuichain-backend/internal/infrastructure/db/migrations"
	"tuichain-backend/internal/logger"
	"tuichain-backend/internal/usecase/document"
	"tuichain-backend/internal/usecase/investment"
	"tuichain-backend/internal/usecase/loan"
	settlementuc "tuichain-backend/internal/usecase/settlement"
	"tuichain-backend/internal/usecase/verification"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the settlement reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
	return cmd
}

func runServe(skipMigrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Component("api")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if !skipMigrate {
		if err := migrations.Migrate(gdb); err != nil {
			return err
		}
	}

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn().Msg("REDIS_ADDR empty: in-process locks, no idempotency")
	}

	backend, err := newSettlementBackend(cfg)
	if err != nil {
		return err
	}
	bridge := settlementuc.NewBridge(backend, cfg.SettlementTimeout)

	store, closeStore, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	pub, closePub, err := newPublisher(cfg, rdb)
	if err != nil {
		return err
	}
	defer closePub()

	loans := sqlstore.NewLoanRepository(gdb)
	verifications := sqlstore.NewVerificationRepository(gdb)
	tx := sqlstore.NewGormUoW(gdb)

	deps := httpadp.RouterDeps{
		Loans: loan.NewUsecase(loan.Deps{
			Loans:               loans,
			UoW:                 tx,
			Bridge:              bridge,
			Locker:              newLocker(rdb),
			Events:              pub,
			Log:                 logger.Component("loan"),
			Verifications:       verifications,
			RequireVerification: cfg.RequireIDVerification,
		}),
		Investments: investment.NewUsecase(loans, sqlstore.NewInvestmentRepository(gdb), tx,
			bridge, pub, logger.Component("investment")),
		Documents: document.NewUsecase(loans, sqlstore.NewDocumentRepository(gdb), tx,
			store, pub, logger.Component("document")),
		Chain:     bridge,
		JWTSecret: []byte(cfg.JWTSecret),
		Redis:     rdb,
		IdempTTL:  time.Duration(cfg.IdempTTLSecs) * time.Second,
		Log:       log,
	}
	if p := newVerificationProvider(cfg); p != nil {
		deps.Verification = verification.NewUsecase(p, verifications, logger.Component("verification"))
	}

	if cfg.ReconcileInterval > 0 {
		rec := settlementuc.NewReconciler(loans, tx, bridge, newPhaseStore(rdb), pub,
			settlementuc.ReconcilerConfig{Interval: cfg.ReconcileInterval, ClaimTTL: cfg.CreatingClaimTTL},
			logger.Component("reconciler"))
		go rec.Run(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	httpLog := logger.Component("http")
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := httpLog.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = httpLog.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("handled API request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	httpadp.Register(e, deps)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.Info().Str("addr", addr).Msg("listening")
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
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
