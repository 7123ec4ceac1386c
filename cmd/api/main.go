package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ubmap.app/internal/app"
	"ubmap.app/internal/appconf"
	"ubmap.app/internal/logging"
	"ubmap.app/internal/overpass"
	"ubmap.app/internal/restapi"
)

func main() {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		logging.LogError(logger, "invalid configuration", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logging.LogError(logger, "failed to initialize application", err)
		os.Exit(1)
	}

	api := restapi.NewRestAPI(application)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // bus stop imports wait on slow mirrors
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(logger, "server stopped", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "graceful shutdown failed", err)
	}
	api.Stop()
	if err := application.Close(); err != nil {
		logging.LogError(logger, "failed to close places database", err)
	}
}

// loadConfig reads flags whose defaults come from the environment.
func loadConfig(args []string) (appconf.Config, error) {
	var (
		cfg             appconf.Config
		env             string
		profileURLs     string
		overpassURLs    string
		trustedProxies  string
		cloudinaryCloud string
	)

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", envInt("PORT", 5000), "API server port")
	fs.StringVar(&env, "env", envString("ENV", "development"), "Environment (development|test|production)")
	fs.StringVar(&cfg.AdminSecret, "admin-secret", os.Getenv("ADMIN_SECRET"), "Shared secret for admin endpoints")
	fs.IntVar(&cfg.RateLimit, "rate-limit", envInt("RATE_LIMIT", 20), "Requests per second per client (0 disables)")
	fs.StringVar(&trustedProxies, "trusted-proxies", os.Getenv("TRUSTED_PROXIES"), "Proxy addresses or CIDRs whose X-Forwarded-For is trusted")
	fs.StringVar(&cfg.DBPath, "db-path", envString("DB_PATH", "ubmap.db"), "SQLite database path")
	fs.StringVar(&cfg.OSRMURL, "osrm-url", envString("OSRM_URL", appconf.DefaultOSRMURL), "Default OSRM base URL")
	fs.StringVar(&profileURLs, "osrm-profile-urls", envString("OSRM_PROFILE_URLS", appconf.DefaultOSRMProfileURLs), "Per-profile OSRM base URLs (profile=url,...)")
	fs.DurationVar(&cfg.OSRMTimeout, "osrm-timeout", envDuration("OSRM_TIMEOUT", appconf.DefaultOSRMTimeout), "Timeout for one OSRM request")
	fs.StringVar(&overpassURLs, "overpass-urls", os.Getenv("OVERPASS_URLS"), "Comma separated Overpass endpoints replacing the defaults, tried in order")
	fs.StringVar(&cfg.BusStopBBox, "bus-stop-bbox", envString("BUS_STOP_BBOX", appconf.DefaultBusStopBBox), "Default bus stop import bbox (south,west,north,east)")
	fs.StringVar(&cfg.GtfsURL, "gtfs-url", os.Getenv("GTFS_URL"), "Static GTFS feed imported when a request provides none")
	fs.Float64Var(&cfg.StopDedupMeters, "stop-dedup-meters", envFloat("STOP_DEDUP_METERS", appconf.DefaultStopDedupMeters), "Same-name stops closer than this are duplicates")
	fs.Float64Var(&cfg.IntermediateStopMeters, "intermediate-stop-meters", envFloat("INTERMEDIATE_STOP_METERS", appconf.DefaultIntermediateStopMeters), "Tolerance around the bus leg for intermediate stops")
	fs.StringVar(&cloudinaryCloud, "cloudinary-cloud-name", os.Getenv("CLOUDINARY_CLOUD_NAME"), "Cloudinary cloud name")
	fs.StringVar(&cfg.Cloudinary.Folder, "cloudinary-folder", envString("CLOUDINARY_FOLDER", appconf.DefaultCloudinaryFolder), "Cloudinary upload folder")
	if err := fs.Parse(args); err != nil {
		return appconf.Config{}, err
	}

	cfg.Env = appconf.EnvFlagToEnvironment(env)
	cfg.OverpassURLs = appconf.SplitList(overpassURLs)
	if len(cfg.OverpassURLs) == 0 {
		// OVERPASS_URL is tried before the public mirrors.
		cfg.OverpassURLs = overpass.Endpoints(os.Getenv("OVERPASS_URL"))
	}
	cfg.Cloudinary.CloudName = cloudinaryCloud
	// Credentials are read from the environment only.
	cfg.Cloudinary.APIKey = os.Getenv("CLOUDINARY_API_KEY")
	cfg.Cloudinary.APISecret = os.Getenv("CLOUDINARY_API_SECRET")

	profiles, err := appconf.ParseProfileURLs(profileURLs)
	if err != nil {
		return appconf.Config{}, err
	}
	cfg.OSRMProfileURLs = profiles

	proxies, err := appconf.ParsePrefixes(trustedProxies)
	if err != nil {
		return appconf.Config{}, err
	}
	cfg.TrustedProxies = proxies

	return cfg, cfg.Validate()
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Plain numbers are seconds.
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
