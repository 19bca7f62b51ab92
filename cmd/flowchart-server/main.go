// Command flowchart-server serves flowchart recognition over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/flowchart-recognizer/internal/api"
	"github.com/ironsheep/flowchart-recognizer/internal/config"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
)

// Version information - set by ldflags during build
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	noOCR := flag.Bool("no-ocr", false, "skip text recognition")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log.SetLevel(cfg.LogLevel)
	defer log.Sync()

	if err := serve(cfg, *noOCR); err != nil {
		log.Errorf("server error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func serve(cfg *config.Config, noOCR bool) error {
	jobs, err := api.NewJobStore(cfg.Server.JobRoot)
	if err != nil {
		return err
	}
	var engine ocr.Engine
	if !noOCR {
		engine = ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.PageSegMode, cfg.OCR.TessdataPrefix)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(cfg, engine, jobs),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("flowchart-server %s listening on %s, jobs in %s", Version, cfg.Server.Addr, cfg.Server.JobRoot)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
