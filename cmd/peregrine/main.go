// Command peregrine is the UCI chess engine binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/engine"
	"github.com/peregrine-chess/peregrine/internal/uci"
)

var (
	hashMB   = flag.Int("hash", 64, "transposition table size in MB")
	logLevel = flag.String("loglevel", "warn", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	// Protocol output owns stdout; logging goes to stderr.
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	if level, err := zerolog.ParseLevel(*logLevel); err == nil {
		log = log.Level(level)
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	eng := engine.New(*hashMB, log)
	uci.New(eng, log).Run()
}
