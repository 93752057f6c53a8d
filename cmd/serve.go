package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/audit"
	"github.com/kozaktomas/facegate/internal/database/postgres"
	"github.com/kozaktomas/facegate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the access controller",
	Long: `Run the access controller.
Loads the gallery, opens the lock actuator, and serves the face ingress and
operator API over HTTP. A missing actuator or audit database degrades the
controller instead of stopping it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, warnings, err := loadGallery(cfg, false)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d enrolled faces from %s (%d warnings)\n", g.Len(), cfg.Gallery.Dir, len(warnings))

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}

	gateway := openGateway(ctx, &cfg.Actuator)
	defer gateway.Close()

	broadcaster := audit.NewBroadcaster(0)
	emitters := []audit.Emitter{audit.NewLogEmitter(slog.Default()), broadcaster}

	var auditStore bool
	if cfg.Database.URL != "" {
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			slog.Warn("audit store unavailable, events are only logged", "error", err)
		} else {
			defer pool.Close()
			emitters = append(emitters, postgres.NewEventRepository(pool))
			auditStore = true
			fmt.Printf("Audit persistence enabled (PostgreSQL)\n")
		}
	}

	clock := access.SystemClock{}
	controller := access.NewController(controllerConfig(cfg), g, gateway,
		access.WithClock(clock),
		access.WithMatcher(matcher),
		access.WithEmitter(audit.NewMulti(slog.Default(), emitters...)),
	)

	server := web.NewServer(cfg, web.Deps{
		Controller:  controller,
		Clock:       clock,
		Broadcaster: broadcaster,
		AuditStore:  auditStore,
	})

	go runRelockTicker(ctx, controller, cfg.Access.RelockTick)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting facegate on http://%s\n", cfg.Web.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		stop()
		<-shutdownDone
		return fmt.Errorf("starting server: %w", err)
	}
	<-shutdownDone
	return nil
}

// runRelockTicker runs no-face cycles so the door re-locks on time even when
// no faces arrive.
func runRelockTicker(ctx context.Context, c *access.Controller, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}
