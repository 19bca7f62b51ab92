// Package config holds every tunable of the recognizer.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. a YAML file: Load's path argument, else $FLOWCHART_CONFIG, else
//     flowchart/config.yaml under the XDG config directories
//  3. a .env file in the working directory, if present
//  4. FLOWCHART_* environment variables
//  5. command-line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWCHART_"

// DefaultFile is the config file looked up in the XDG config directories.
const DefaultFile = "flowchart/config.yaml"

// PreprocessConfig tunes the mask-producing chain.
type PreprocessConfig struct {
	// BlockSize is the adaptive threshold neighbourhood. Must be odd.
	BlockSize int `yaml:"block_size"`
	// C is subtracted from the local mean before comparing.
	C float64 `yaml:"c"`
	// Upscale multiplies both dimensions before contour extraction.
	Upscale int `yaml:"upscale"`
	// PreBlurRadius is the Gaussian radius applied before upscaling.
	PreBlurRadius float64 `yaml:"pre_blur_radius"`
	ClipLimit     float64 `yaml:"clip_limit"`
	TileGrid      int     `yaml:"tile_grid"`
	DenoiseRadius float64 `yaml:"denoise_radius"`
	// OtsuBlurRadius smooths the denoised image before Otsu binarization.
	OtsuBlurRadius float64 `yaml:"otsu_blur_radius"`
	// OtsuMaxValue is the foreground intensity written by the binarization.
	OtsuMaxValue   uint8   `yaml:"otsu_max_value"`
	EdgeLow        float64 `yaml:"edge_low"`
	EdgeHigh       float64 `yaml:"edge_high"`
	EdgeBlurRadius float64 `yaml:"edge_blur_radius"`
	OpeningRadius  float64 `yaml:"opening_radius"`
}

// ClassifyConfig is the shape classification policy.
type ClassifyConfig struct {
	// MinPoints is the fewest contour points an ellipse can be fitted to.
	MinPoints int `yaml:"min_points"`
	// ApproxEpsilon is the polygon tolerance as a fraction of the perimeter.
	ApproxEpsilon float64 `yaml:"approx_epsilon"`
	// AxisFraction bounds each ellipse axis relative to the mask dimension.
	AxisFraction float64 `yaml:"axis_fraction"`
	// AreaFraction keeps contours larger than this share of the source area.
	AreaFraction float64 `yaml:"area_fraction"`
	// ConnectorRatio: area/circumference below this is a connector.
	ConnectorRatio float64 `yaml:"connector_ratio"`
	// BorderMargin drops non-shape contours this close to any image edge.
	BorderMargin int `yaml:"border_margin"`
}

// GraphConfig tunes the line association pass.
type GraphConfig struct {
	AttachDistance     float64 `yaml:"attach_distance"`
	TextAttachDistance float64 `yaml:"text_attach_distance"`
}

// OCRConfig configures the Tesseract engine.
type OCRConfig struct {
	Language       string `yaml:"language"`
	PageSegMode    int    `yaml:"page_seg_mode"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// OutputConfig names the run artifacts.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Diagnostic string `yaml:"diagnostic"`
	Data       string `yaml:"data"`
	Temp       string `yaml:"temp"`
	Suffix     string `yaml:"suffix"`
	CopySuffix string `yaml:"copy_suffix"`
}

// OverlayConfig styles the annotated image.
type OverlayConfig struct {
	ShapeColor string `yaml:"shape_color"`
	LabelColor string `yaml:"label_color"`
	LineWidth  int    `yaml:"line_width"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	JobRoot     string `yaml:"job_root"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Config is the full recognizer configuration.
type Config struct {
	Padding  int    `yaml:"padding"`
	Offset   int    `yaml:"offset"`
	Arrow    int    `yaml:"arrow"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`

	Preprocess PreprocessConfig `yaml:"preprocess"`
	Classify   ClassifyConfig   `yaml:"classify"`
	Graph      GraphConfig      `yaml:"graph"`
	OCR        OCRConfig        `yaml:"ocr"`
	Output     OutputConfig     `yaml:"output"`
	Overlay    OverlayConfig    `yaml:"overlay"`
	Server     ServerConfig     `yaml:"server"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Padding:  25,
		Offset:   10,
		Arrow:    30,
		Workers:  1,
		LogLevel: "info",
		Preprocess: PreprocessConfig{
			BlockSize:      111,
			C:              48,
			Upscale:        2,
			PreBlurRadius:  2,
			ClipLimit:      4.0,
			TileGrid:       4,
			DenoiseRadius:  2,
			OtsuBlurRadius: 12,
			OtsuMaxValue:   100,
			EdgeLow:        0,
			EdgeHigh:       255,
			EdgeBlurRadius: 4,
			OpeningRadius:  1,
		},
		Classify: ClassifyConfig{
			MinPoints:      5,
			ApproxEpsilon:  0.04,
			AxisFraction:   0.5,
			AreaFraction:   0.001,
			ConnectorRatio: 30,
			BorderMargin:   10,
		},
		Graph: GraphConfig{
			AttachDistance:     20,
			TextAttachDistance: 40,
		},
		OCR: OCRConfig{
			Language:    "eng",
			PageSegMode: 3,
		},
		Output: OutputConfig{
			Dir:        ".",
			Diagnostic: "thresh.png",
			Data:       "data.json",
			Temp:       "text.png",
			Suffix:     "_out",
			CopySuffix: "_processed",
		},
		Overlay: OverlayConfig{
			ShapeColor: "#00FF00",
			LabelColor: "#0000FF",
			LineWidth:  2,
		},
		Server: ServerConfig{
			Addr:        ":8081",
			JobRoot:     "./jobs",
			MaxUploadMB: 20,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, .env and the
// environment, then validates it. An empty path skips the file; a path that
// cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the first existing DefaultFile in the XDG config
// directories, or "" if there is none.
func DefaultPath() string {
	path, err := xdg.SearchConfigFile(DefaultFile)
	if err != nil {
		return ""
	}
	return path
}

func (c *Config) applyEnv() {
	c.Padding = getEnvInt("PADDING", c.Padding)
	c.Offset = getEnvInt("OFFSET", c.Offset)
	c.Arrow = getEnvInt("ARROW", c.Arrow)
	c.Workers = getEnvInt("WORKERS", c.Workers)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Classify.ConnectorRatio = getEnvFloat("CONNECTOR_RATIO", c.Classify.ConnectorRatio)
	c.Classify.BorderMargin = getEnvInt("BORDER_MARGIN", c.Classify.BorderMargin)
	c.Classify.AreaFraction = getEnvFloat("AREA_FRACTION", c.Classify.AreaFraction)
	c.Classify.AxisFraction = getEnvFloat("AXIS_FRACTION", c.Classify.AxisFraction)

	c.OCR.Language = getEnv("OCR_LANGUAGE", c.OCR.Language)
	c.OCR.TessdataPrefix = getEnv("TESSDATA_PREFIX", c.OCR.TessdataPrefix)

	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.JobRoot = getEnv("JOB_ROOT", c.Server.JobRoot)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Padding > 0, "padding must be positive, got %d", c.Padding)
	check(c.Offset > 0, "offset must be positive, got %d", c.Offset)
	check(c.Arrow > 0, "arrow must be positive, got %d", c.Arrow)
	check(c.Workers > 0, "workers must be positive, got %d", c.Workers)

	p := c.Preprocess
	check(p.BlockSize >= 3 && p.BlockSize%2 == 1, "preprocess.block_size must be odd and >= 3, got %d", p.BlockSize)
	check(p.Upscale >= 1, "preprocess.upscale must be >= 1, got %d", p.Upscale)
	check(p.TileGrid >= 1, "preprocess.tile_grid must be >= 1, got %d", p.TileGrid)
	check(p.ClipLimit > 0, "preprocess.clip_limit must be positive, got %g", p.ClipLimit)

	k := c.Classify
	check(k.MinPoints >= 1, "classify.min_points must be >= 1, got %d", k.MinPoints)
	check(k.ApproxEpsilon > 0 && k.ApproxEpsilon <= 1, "classify.approx_epsilon must be in (0,1], got %g", k.ApproxEpsilon)
	check(k.AxisFraction > 0 && k.AxisFraction <= 1, "classify.axis_fraction must be in (0,1], got %g", k.AxisFraction)
	check(k.AreaFraction > 0 && k.AreaFraction <= 1, "classify.area_fraction must be in (0,1], got %g", k.AreaFraction)
	check(k.ConnectorRatio > 0, "classify.connector_ratio must be positive, got %g", k.ConnectorRatio)
	check(k.BorderMargin >= 0, "classify.border_margin must not be negative, got %d", k.BorderMargin)

	check(c.Graph.AttachDistance >= 0, "graph.attach_distance must not be negative")
	check(c.Graph.TextAttachDistance >= 0, "graph.text_attach_distance must not be negative")

	check(c.OCR.Language != "", "ocr.language must not be empty")
	check(c.Output.Diagnostic != "" && c.Output.Data != "", "output file names must not be empty")
	check(c.Output.Suffix != "", "output.suffix must not be empty")

	for name, hex := range map[string]string{
		"overlay.shape_color": c.Overlay.ShapeColor,
		"overlay.label_color": c.Overlay.LabelColor,
	} {
		if _, err := colorful.Hex(hex); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid colour %q", name, hex))
		}
	}
	check(c.Overlay.LineWidth > 0, "overlay.line_width must be positive, got %d", c.Overlay.LineWidth)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

// WithParams returns a copy with the three command-surface parameters
// replaced. Non-positive values keep the current setting.
func (c *Config) WithParams(padding, offset, arrow int) *Config {
	out := *c
	if padding > 0 {
		out.Padding = padding
	}
	if offset > 0 {
		out.Offset = offset
	}
	if arrow > 0 {
		out.Arrow = arrow
	}
	return &out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
