// Command lattice-demo connects with the environment configuration, builds
// the collections for the configured schema directory and prints the first
// page of a collection. Useful as a wiring smoke test against a live server.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/latticedb/lattice"
	"github.com/latticedb/lattice/config"
	"github.com/latticedb/lattice/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h, err := lattice.Open(ctx, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open")
	}
	defer h.Close(context.Background())

	name := "user"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	col, err := h.Collection(name)
	if err != nil {
		log.Fatal().Err(err).Msg("collection")
	}

	docs, err := col.Find(ctx, 0, 10, store.Document{}, false)
	if err != nil {
		log.Fatal().Err(err).Msg("find")
	}
	for _, doc := range docs {
		log.Info().Interface("doc", doc).Msg("document")
	}
	log.Info().Str("collection", name).Int("count", len(docs)).Msg("done")
}
