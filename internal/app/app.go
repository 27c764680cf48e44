package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/humanbelnik/reelswap/internal/config"
	http_health "github.com/humanbelnik/reelswap/internal/delivery/http/health"
	http_imports "github.com/humanbelnik/reelswap/internal/delivery/http/imports"
	http_init "github.com/humanbelnik/reelswap/internal/delivery/http/init"
	http_match "github.com/humanbelnik/reelswap/internal/delivery/http/match"
	http_movie "github.com/humanbelnik/reelswap/internal/delivery/http/movie"
	ws_swipe "github.com/humanbelnik/reelswap/internal/delivery/ws/swipe"
	infra_library "github.com/humanbelnik/reelswap/internal/infra/library"
	infra_listexport "github.com/humanbelnik/reelswap/internal/infra/listexport"
	infra_omdb "github.com/humanbelnik/reelswap/internal/infra/omdb"
	infra_ratings "github.com/humanbelnik/reelswap/internal/infra/ratings"
	infra_snapshot "github.com/humanbelnik/reelswap/internal/infra/snapshot"
	infra_tmdb "github.com/humanbelnik/reelswap/internal/infra/tmdb"
	"github.com/humanbelnik/reelswap/internal/service/aliases"
	"github.com/humanbelnik/reelswap/internal/service/supervisor"
	storage_index "github.com/humanbelnik/reelswap/internal/storage/index"
	usecase_enrich "github.com/humanbelnik/reelswap/internal/usecase/enrich"
	usecase_imports "github.com/humanbelnik/reelswap/internal/usecase/imports"
	usecase_movie "github.com/humanbelnik/reelswap/internal/usecase/movie"
	usecase_session "github.com/humanbelnik/reelswap/internal/usecase/session"
)

func Go(cfg *config.Config) {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ratingsDB := infra_ratings.MustEstablishConn(cfg.Ratings.Path)
	ratings := infra_ratings.New(ratingsDB)

	store := infra_snapshot.New(cfg.Snapshot.Path, infra_snapshot.WithLogger(logger))
	index := storage_index.New(store, cfg.Snapshot.FlushInterval, storage_index.WithLogger(logger))

	omdbClient, err := infra_omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL, cfg.OMDb.Timeout)
	if err != nil {
		panic(err)
	}
	tmdbClient, err := infra_tmdb.New(cfg.TMDb.APIKey, cfg.TMDb.BaseURL, cfg.TMDb.Timeout, cfg.TMDb.RateLimit)
	if err != nil {
		panic(err)
	}

	var catalog usecase_enrich.Catalog = infra_library.Disabled{}
	if cfg.Library.BaseURL != "" {
		libraryClient, err := infra_library.New(cfg.Library.BaseURL, cfg.Library.Token, cfg.Library.Timeout)
		if err != nil {
			panic(err)
		}
		catalog = libraryClient
	}

	registry := usecase_session.NewRegistry(
		cfg.Rooms.IdleTTL,
		cfg.Rooms.SweepInterval,
		usecase_session.WithLogger(logger),
	)
	sessionUC := usecase_session.New(registry)

	hub := ws_swipe.NewHub(ws_swipe.WithLogger(logger))
	sessionUC.SetNotifier(hub)

	enrichUC := usecase_enrich.New(
		ratings,
		omdbClient,
		tmdbClient,
		catalog,
		aliases.New(),
		index,
		cfg.Cache.SearchSize,
		cfg.Cache.DetailSize,
		usecase_enrich.WithLogger(logger),
		usecase_enrich.WithCallTimeout(cfg.TMDb.Timeout),
	)

	sup := supervisor.New(logger)
	sup.Add(hub)
	sup.Add(registry)
	sup.Add(index)

	exports := infra_listexport.New(cfg.Imports.Timeout)
	importsUC := usecase_imports.New(enrichUC, sessionUC, exports, hub, sup,
		usecase_imports.WithLogger(logger))

	movieUC := usecase_movie.New(enrichUC, catalog, sessionUC)

	errCh := sup.ServeBackground(ctx)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_match.New(sessionUC, http_match.WithLogger(logger)))
	controllerPool.Add(http_movie.New(movieUC, http_movie.WithLogger(logger)))
	controllerPool.Add(http_imports.New(importsUC, http_imports.WithLogger(logger)))
	controllerPool.Add(http_health.New(sup))
	controllerPool.Add(ws_swipe.NewController(hub, sessionUC, ws_swipe.WithControllerLogger(logger)))

	controllerPool.Register()
	go func() {
		if err := controllerPool.RunAll(cfg.HTTP.Port); err != nil {
			logger.Error("http server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	// Wait for supervised services; the index flushes once more here.
	<-errCh
}
