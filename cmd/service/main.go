package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/flexpro/backend/internal"
	"github.com/flexpro/backend/internal/config"
	"github.com/flexpro/backend/internal/logging"
	"github.com/flexpro/backend/pkg"

	log "github.com/sirupsen/logrus"
)

const serviceName = "flexpro-backend"

func main() {
	env := flag.String("env", "development", "environment [development | production]")
	configPath := flag.String("config", "./config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: serviceName,
	})

	log.Warnf("%s starting, environment [%s], port %d", serviceName, *env, cfg.Port)

	jwtSecret := os.Getenv("FLEXPRO_JWT_SECRET")
	if jwtSecret == "" {
		log.Error("FLEXPRO_JWT_SECRET env var not set, tokens will not survive restarts")
	}
	redisPassword := os.Getenv("FLEXPRO_REDIS_PASS")
	if redisPassword == "" {
		log.Error("FLEXPRO_REDIS_PASS env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	switch {
	case honeycombEnabled && os.Getenv("HONEYCOMB_API_KEY") == "":
		log.Warn("HONEYCOMB_API_KEY env var not set")
	case honeycombEnabled && os.Getenv("OTEL_SERVICE_NAME") == "":
		log.Warn("OTEL_SERVICE_NAME env var not set")
	case !honeycombEnabled:
		log.Debug("honeycomb tracing disabled")
	}

	version, err := lastCommitHash()
	if err != nil {
		log.Tracef("version info unavailable: %s", err)
	} else {
		log.Infof("running version %s", version)
	}

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			JWTSecret:               jwtSecret,
			RedisPassword:           redisPassword,
			VersionInfo:             version,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	sig := <-interrupts
	log.Warnf("signal [%s] received, shutting down", sig)

	cancel()
	server.GracefulShutdown()
}

// lastCommitHash assumes the executable runs from the project root with the
// git history present, which is how the deploy script lays it out.
func lastCommitHash() (string, error) {
	out, err := exec.Command("/usr/bin/git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.BytesToString(out)), nil
}
