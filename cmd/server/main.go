package main

import (
	"context"
	"time"

	"github.com/zefir/reakcja-go-backend/config"
	"github.com/zefir/reakcja-go-backend/internal"
	"github.com/zefir/reakcja-go-backend/internal/db"
	"github.com/zefir/reakcja-go-backend/logger"
)

func main() {
	config.Load()
	logger.Init(config.AppConfig.LOG_LEVEL, config.AppConfig.PRETTY_LOGS)

	var store *db.Store
	if uri := config.AppConfig.POSTGRES_URI; uri != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s, err := db.Open(ctx, uri)
		cancel()
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("database initialization failed")
		}
		store = s
		defer store.Close()
	} else {
		logger.Log.Info().Msg("POSTGRES_URI not set, match archive disabled")
	}

	srv := internal.NewServer(store)
	if err := srv.ListenAndServe(":" + config.AppConfig.WS_PORT); err != nil {
		logger.Log.Fatal().Err(err).Msg("websocket server error")
	}
}
