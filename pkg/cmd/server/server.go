package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/cmd/util"
	"github.com/mpapenbr/beyond-the-apex/pkg/config"
	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/endpoints"
	"github.com/mpapenbr/beyond-the-apex/pkg/fetch"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils"
)

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8090",
		"server listen address")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (stdout prints to console)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.StaleDuration,
		"stale-duration",
		"30m",
		"dashboard sessions are removed if not used for this duration")
	cmd.Flags().StringSliceVar(&config.AllowedOrigins,
		"allowed-origins",
		[]string{},
		"origins allowed for browser access (default: all)")
	cmd.Flags().StringVar(&config.WaitForService,
		"wait-for-service",
		"0s",
		"duration to wait for the analysis service to be reachable (0 disables the check)")
	cmd.Flags().StringVar(&config.Drivers,
		"drivers",
		"VER,HAM",
		"comma separated driver codes preset for new sessions")
	return cmd
}

//nolint:funlen // by design
func startServer(ctx context.Context) error {
	if _, err := util.SetupLogger(); err != nil {
		return err
	}
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	log.Debug("Config:",
		log.String("serviceUrl", cfg.ServiceURL),
		log.Duration("requestTimeout", cfg.RequestTimeout),
		log.Duration("cacheTTL", cfg.CacheTTL),
		log.Duration("staleDuration", cfg.StaleDuration),
		log.Strings("allowedOrigins", config.AllowedOrigins),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	if cfg.WaitForService > 0 {
		waitForService(ctx, cfg)
	}

	client := util.NewFetchClient(cfg)
	mgr := endpoints.NewManager(
		newDashboardFactory(client, cfg),
		endpoints.WithLookup(utils.NewSessionLookup[*dashboard.Dashboard](
			utils.WithStaleDuration(cfg.StaleDuration))),
		endpoints.WithRequestTimeout(2*cfg.RequestTimeout),
		endpoints.WithOriginPatterns(config.AllowedOrigins...),
	)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go mgr.RunSweeper(sweepCtx, sweepInterval(cfg.StaleDuration))

	//nolint:gosec // by design
	server := &http.Server{
		Addr: config.ServerAddr,
		Handler: h2c.NewHandler(
			newCORS().Handler(otelhttp.NewHandler(mgr.Handler(), "bta")),
			&http2.Server{}),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", log.String("addr", config.ServerAddr))
		errCh <- server.ListenAndServe()
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server could not be started", log.ErrorField(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	mgr.Shutdown()
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

func waitForService(ctx context.Context, cfg config.Config) {
	addr, err := utils.ServiceAddr(cfg.ServiceURL)
	if err != nil {
		log.Fatal("invalid service url", log.ErrorField(err))
	}
	log.Debug("Waiting for analysis service", log.String("addr", addr))
	if err := utils.WaitForTCP(ctx, addr, cfg.WaitForService); err != nil {
		log.Fatal("required services not ready", log.ErrorField(err))
	}
	if err := utils.WaitForHTTPResponse(ctx, cfg.ServiceURL, cfg.WaitForService); err != nil {
		log.Fatal("analysis service not responding", log.ErrorField(err))
	}
	log.Debug("Required services are available")
}

func newDashboardFactory(client *fetch.Client, cfg config.Config) endpoints.Factory {
	return func() *dashboard.Dashboard {
		return dashboard.New(client, dashboard.WithDrivers(cfg.Drivers))
	}
}

// sweepInterval checks a few times per stale duration
func sweepInterval(stale time.Duration) time.Duration {
	return max(stale/4, time.Second)
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		// Let browsers cache CORS information for longer, which reduces the number
		// of preflight requests.
		MaxAge: int(2 * time.Hour / time.Second),
	}
	if len(config.AllowedOrigins) > 0 {
		opts.AllowedOrigins = config.AllowedOrigins
	} else {
		opts.AllowOriginFunc = func(origin string) bool { return true }
	}
	return cors.New(opts)
}
