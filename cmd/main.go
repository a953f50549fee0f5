package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"guesswhat-trivia-service/internal/cli"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("exited with error")
		os.Exit(1)
	}
}
