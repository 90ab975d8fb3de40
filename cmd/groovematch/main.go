package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/groovematch/groovematch/internal/app"
	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/pkg/songfeed"
)

// defaultFeedURL is the public master-DB mirror the song catalog is built from
const defaultFeedURL = "https://raw.githubusercontent.com/Sekai-World/sekai-master-db-en-diff/main"

// envOr returns the environment value for key, or fallback when unset
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; flags and the environment win
	_ = godotenv.Load()

	var (
		addr       = flag.String("addr", envOr("GROOVEMATCH_ADDR", ":8080"), "HTTP listen address")
		dbPath     = flag.String("db", envOr("GROOVEMATCH_DB", "groovematch.db"), "SQLite database path")
		feedURL    = flag.String("feed-url", envOr("GROOVEMATCH_FEED_URL", defaultFeedURL), "Song feed base URL")
		baseURL    = flag.String("base-url", envOr("GROOVEMATCH_BASE_URL", ""), "Public base URL for join links")
		logLevel   = flag.String("log-level", envOr("GROOVEMATCH_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
		httpLog    = flag.Bool("http-log", false, "Log every HTTP request")
		candidates = flag.Int("candidates", 0, "Songs per poll (default 9)")
		roomSize   = flag.Int("room-size", 0, "Participants per room (2-5, default 5)")
	)
	flag.Parse()

	log := logger.NewWithLevel(logger.ParseLevel(*logLevel))
	if *httpLog {
		log.EnableHTTPLogging()
	}

	feedClient := songfeed.NewHTTPClient(*feedURL, log)

	a, err := app.New(log, feedClient, app.Config{
		DBPath:         *dbPath,
		BaseURL:        *baseURL,
		CandidateCount: *candidates,
		RoomCapacity:   *roomSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(*addr); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
