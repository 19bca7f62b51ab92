// Command flowchart recognizes a flowchart image and prints its nodes.
//
// Usage:
//
//	flowchart -f chart.png [-p 25] [-o 10] [-a 30]
//	flowchart            (prompts for the image file)
//
// Besides the table on stdout, a run writes the annotated image next to the
// input and the diagnostic threshold image and data.json to the output
// directory.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/ironsheep/flowchart-recognizer/internal/config"
	"github.com/ironsheep/flowchart-recognizer/internal/graph"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
	"github.com/ironsheep/flowchart-recognizer/internal/ocr"
	"github.com/ironsheep/flowchart-recognizer/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	log.Sync()
	os.Exit(code)
}

type options struct {
	filename  string
	padding   int
	offset    int
	arrow     int
	workers   int
	config    string
	logLevel  string
	outputDir string
	noOCR     bool
	version   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	var o options
	fs := flag.NewFlagSet("flowchart", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.filename, "filename", "", "flowchart image to recognize")
	fs.StringVar(&o.filename, "f", "", "shorthand for --filename")
	fs.IntVar(&o.padding, "padding", 0, "stroke width painted over a shape outline before OCR (default 25)")
	fs.IntVar(&o.padding, "p", 0, "shorthand for --padding")
	fs.IntVar(&o.offset, "offset", 0, "corner tolerance for connector endpoints (default 10)")
	fs.IntVar(&o.offset, "o", 0, "shorthand for --offset")
	fs.IntVar(&o.arrow, "arrow", 0, "arrowhead radius used to orient connectors (default 30)")
	fs.IntVar(&o.arrow, "a", 0, "shorthand for --arrow")
	fs.IntVar(&o.workers, "workers", 0, "contours classified concurrently")
	fs.StringVar(&o.config, "config", "", "YAML config file")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.outputDir, "output-dir", "", "directory for thresh.png and data.json")
	fs.BoolVar(&o.noOCR, "no-ocr", false, "skip text recognition")
	fs.BoolVar(&o.version, "version", false, "print version information")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return &o, set, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if o.version {
		fmt.Fprintf(stdout, "flowchart %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	if len(args) == 0 {
		name, err := prompt(stdin, stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		o.filename = name
	}
	if o.filename == "" {
		fmt.Fprintln(stderr, "flowchart: --filename is required")
		return 2
	}

	cfg, err := config.Load(o.config)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	applyFlags(cfg, o, set)
	log.SetLevel(cfg.LogLevel)

	var engine ocr.Engine
	if !o.noOCR {
		engine = ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.PageSegMode, cfg.OCR.TessdataPrefix)
	}
	p, err := pipeline.New(cfg, engine)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	res, err := p.Run(ctx, o.filename)
	if err != nil {
		log.Errorf("recognition failed: %v", err)
		return 1
	}

	if err := graph.WriteTable(stdout, res.Graph); err != nil {
		log.Errorf("failed to print table: %v", err)
		return 1
	}
	fmt.Fprintf(stdout, "Processed image saved as %s\n", res.Artifacts.OverlayCopy)
	return 0
}

// applyFlags lets explicitly set flags override the loaded config. Invalid
// values are left for Validate to report.
func applyFlags(cfg *config.Config, o *options, set map[string]bool) {
	if set["padding"] || set["p"] {
		cfg.Padding = o.padding
	}
	if set["offset"] || set["o"] {
		cfg.Offset = o.offset
	}
	if set["arrow"] || set["a"] {
		cfg.Arrow = o.arrow
	}
	if set["workers"] {
		cfg.Workers = o.workers
	}
	if set["log-level"] {
		cfg.LogLevel = o.logLevel
	}
	if set["output-dir"] {
		cfg.Output.Dir = o.outputDir
	}
}

// prompt asks for the image path. The question is only printed when stdin is
// a terminal so piped input produces a clean table.
func prompt(stdin io.Reader, stdout io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		fmt.Fprint(stdout, "image file: ")
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read image file name: %w", err)
	}
	return strings.TrimSpace(line), nil
}
