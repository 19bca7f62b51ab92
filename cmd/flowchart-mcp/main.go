package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/flowchart-recognizer/internal/config"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
	"github.com/ironsheep/flowchart-recognizer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("flowchart-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("flowchart-mcp - MCP server for flowchart recognition")
			fmt.Println()
			fmt.Println("Usage: flowchart-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  FLOWCHART_CONFIG=path        YAML config file")
			fmt.Println("  FLOWCHART_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.SetLevel(cfg.LogLevel)
	defer log.Sync()
	log.Debugf("flowchart MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.PageSegMode, cfg.OCR.TessdataPrefix)
	srv := server.New(cfg, engine, Version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Errorf("server error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
