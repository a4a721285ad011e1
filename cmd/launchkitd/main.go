// Command launchkitd is the reference embedder: it loads configuration,
// wires the logger, registers the demonstration Services (cache, database,
// heartbeat) and the HTTP/WebSocket transport, then runs the manager's
// supervised launch until a signal or a component failure ends it.
// Grounded on the teacher's cmd/gateway wiring style (flags -> config ->
// services -> engine.Run).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/launchkit/launchkit/internal/cache"
	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/database"
	"github.com/launchkit/launchkit/internal/echo"
	"github.com/launchkit/launchkit/internal/heartbeat"
	"github.com/launchkit/launchkit/internal/httprouter"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/logger"
	"github.com/launchkit/launchkit/internal/metrics"
	"github.com/launchkit/launchkit/internal/rider"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; when set, DATABASE_URL is the only env override applied")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "launchkitd: load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	mgr := launart.NewManager(launart.WithLogger(log))

	cacheSvc := cache.New(cfg.Cache)
	dbSvc := database.New(cfg.Database)
	heartbeatSvc := heartbeat.New(cfg.Heartbeat)
	echoClientSvc := echo.NewClientService(cfg.Server, cfg.Reconnect)

	for _, l := range []launart.Launchable{cacheSvc, dbSvc, heartbeatSvc, echoClientSvc} {
		if err := mgr.AddLaunchable(l); err != nil {
			log.Errorf("launchkitd: register %s: %v", l.ID(), err)
			os.Exit(1)
		}
	}

	serverRider := rider.NewServerRider()
	router := httprouter.NewRouter(serverRider, cfg.Websocket.ReadBufferBytes, cfg.Websocket.WriteBufferBytes)

	echoStats, err := echo.NewServerStats()
	if err != nil {
		log.Errorf("launchkitd: build echo stats: %v", err)
		os.Exit(1)
	}
	if err := router.MountTransport(echo.NewServerTransport(echoStats)); err != nil {
		log.Errorf("launchkitd: mount echo transport: %v", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/", router.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Infof("launchkitd: listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("launchkitd: http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launchErr := make(chan error, 1)
	go func() { launchErr <- mgr.Launch(ctx) }()

	select {
	case err := <-launchErr:
		if err != nil {
			log.Errorf("launchkitd: manager exited: %v", err)
		}
	case <-sigCh:
		log.Infof("launchkitd: shutdown signal received, draining")
		cancel()
		select {
		case err := <-launchErr:
			if err != nil {
				log.Errorf("launchkitd: manager exited: %v", err)
			}
		case <-sigCh:
			// A second interrupt while cleanup is in flight means the
			// operator wants out now, not eventually; force-abort rather
			// than wait on a component stuck in cleanup.
			log.Warnf("launchkitd: second interrupt received, forcing exit")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warnf("launchkitd: graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
