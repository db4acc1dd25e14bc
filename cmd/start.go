package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"artifact-store/core/loader"
	"artifact-store/core/logger"
	"artifact-store/core/middleware/rayid"
	"artifact-store/feature/health"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the artifact store",
	Long:  `Connects to the storage backend and serves the health and metrics endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newDeps()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// A backend that is unreachable at boot is fatal.
		ctx := context.Background()
		if err := rt.engine.Start(ctx); err != nil {
			logg.Fatal("Failed to start storage engine", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           rt.cfg.Server.ReadTimeout(),
		})

		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return err
		})

		if rt.cfg.Metrics.Enabled {
			app.Get(rt.cfg.Metrics.Path, adaptor.HTTPHandler(rt.metrics.Handler()))
		}

		mgr := loader.NewManager()
		mgr.Register(health.NewFeature(rt.engine, rt.cfg.Storage.Bucket, rt.cfg.Storage.Timeout(), logg))

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		go func() {
			logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(rt.cfg.Server.ShutdownTimeout()); err != nil {
			logg.Warn("Graceful shutdown failed", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
