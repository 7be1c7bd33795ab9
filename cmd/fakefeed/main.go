package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pacegrid/internal/testfeed"
	"github.com/okian/pacegrid/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	var (
		addr    = flag.String("addr", ":3001", "Listen address")
		runners = flag.Int("runners", 12, "Number of synthetic runners")
		seed    = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Pace and PB generator seed")
		eventID = flag.String("event", "", "Serve an event-scoped feed under this id")
		format  = flag.String("log-format", "text", "Log format: json or text")
		verbose = flag.Bool("verbose", false, "Log every request")
	)
	flag.Parse()

	if err := logger.InitWithFormat(*format, os.Stdout); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Get().Named("fakefeed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := testfeed.NewServer(
		testfeed.WithRunners(*runners),
		testfeed.WithSeed(*seed),
		testfeed.WithEventID(*eventID),
		testfeed.WithLogger(log),
	)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           fs.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving synthetic feed",
			logger.String("addr", *addr),
			logger.Int("runners", *runners),
			logger.String("event", *eventID),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "feed server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown failed", logger.Error(err))
	}
}
