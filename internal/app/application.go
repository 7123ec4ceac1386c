package app

import (
	"errors"
	"fmt"
	"log/slog"

	"ubmap.app/internal/appconf"
	"ubmap.app/internal/gtfs"
	"ubmap.app/internal/media"
	"ubmap.app/internal/osrm"
	"ubmap.app/internal/overpass"
	"ubmap.app/internal/routing"
	"ubmap.app/internal/stopsync"
	"ubmap.app/internal/transit"
	"ubmap.app/placesdb"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config       appconf.Config
	Logger       *slog.Logger
	Places       *placesdb.Client
	Router       *routing.Router
	Composer     *transit.Composer
	StopImporter *stopsync.Importer
	GtfsImporter *gtfs.Importer
	// Uploader is nil when no image host is configured.
	Uploader media.Uploader
}

// New opens the store and wires every component from cfg.
func New(cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	places, err := placesdb.NewClient(placesdb.NewConfig(cfg.DBPath, cfg.Env, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open places database: %w", err)
	}

	engine := osrm.NewClient(osrm.Config{
		BaseURL:     cfg.OSRMURL,
		ProfileURLs: cfg.OSRMProfileURLs,
		Timeout:     cfg.OSRMTimeout,
	}, logger)

	application := Wire(cfg, logger, places, engine, overpass.NewClient(cfg.OverpassURLs, logger))

	uploader, err := media.NewCloudinaryUploader(cfg.Cloudinary, logger)
	switch {
	case errors.Is(err, media.ErrDisabled):
		logger.Warn("cloudinary is not configured, image uploads are disabled")
	case err != nil:
		_ = places.Close()
		return nil, err
	default:
		application.Uploader = uploader
	}

	return application, nil
}

// Wire assembles the application around already constructed collaborators.
func Wire(cfg appconf.Config, logger *slog.Logger, places *placesdb.Client, engine routing.Engine, fetcher stopsync.Fetcher) *Application {
	router := routing.NewRouter(engine, logger)
	importer := stopsync.NewImporter(places.Queries, fetcher, stopsync.Config{
		DedupMeters: cfg.StopDedupMeters,
		DefaultBBox: cfg.BusStopBBox,
	}, logger)

	return &Application{
		Config:       cfg,
		Logger:       logger,
		Places:       places,
		Router:       router,
		StopImporter: importer,
		Composer: transit.NewComposer(places.Queries, router, importer, transit.Config{
			IntermediateStopMeters: cfg.IntermediateStopMeters,
		}, logger),
		GtfsImporter: gtfs.NewImporter(gtfs.Config{GtfsURL: cfg.GtfsURL}, importer, logger),
	}
}

func (app *Application) Close() error {
	if app.Places == nil {
		return nil
	}
	return app.Places.Close()
}
