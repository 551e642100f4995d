package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/plot/vg"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/view.defaults.json"

// ExportFormats lists the accepted export_format values.
var ExportFormats = []string{"glb", "gltf", "png", "svg", "html"}

// ViewConfig holds viewer and server settings. Every field is optional;
// the Get* methods fall back to defaults for fields left out of the JSON.
type ViewConfig struct {
	// Servers
	ListenAddr      *string `json:"listen_addr,omitempty"`
	GRPCAddr        *string `json:"grpc_addr,omitempty"`
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"` // duration string like "1s"
	EnableAdmin     *bool   `json:"enable_admin,omitempty"`

	// Wireframe
	Depths           []int    `json:"depths,omitempty"`
	Padding          *float64 `json:"padding,omitempty"`
	MaxBoxesPerDepth *int     `json:"max_boxes_per_depth,omitempty"`

	// Export
	ExportFormat *string `json:"export_format,omitempty"`
	PlotSize     *string `json:"plot_size,omitempty"` // plot length like "16cm"
	PlotPlane    *string `json:"plot_plane,omitempty"`

	// Scratch files: glb downloads and hand-off copies
	ScratchDir *string `json:"scratch_dir,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultViewConfig returns a ViewConfig with every field populated.
// config/view.defaults.json mirrors it.
func DefaultViewConfig() *ViewConfig {
	return &ViewConfig{
		ListenAddr:       ptrString(":8090"),
		GRPCAddr:         ptrString(":50051"),
		ShutdownTimeout:  ptrString("1s"),
		EnableAdmin:      ptrBool(true),
		Depths:           []int{0, 1, 2, 3},
		Padding:          ptrFloat64(0),
		MaxBoxesPerDepth: ptrInt(2000),
		ExportFormat:     ptrString("glb"),
		PlotSize:         ptrString("16cm"),
		PlotPlane:        ptrString("xy"),
		ScratchDir:       ptrString(""),
	}
}

// LoadViewConfig loads a ViewConfig from a JSON file with a .json
// extension no larger than 1MB. Omitted fields keep their defaults.
func LoadViewConfig(path string) (*ViewConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ViewConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaultConfigCandidates are tried in order by the default loaders.
var defaultConfigCandidates = []string{
	DefaultConfigPath,
	"../" + DefaultConfigPath,
	"../../" + DefaultConfigPath,    // from internal/config/
	"../../../" + DefaultConfigPath, // from cmd/tools/gen-synthetic/
}

// LoadDefaultConfig loads DefaultConfigPath from the current directory or
// one of its parents, falling back to DefaultViewConfig when none exists.
func LoadDefaultConfig() *ViewConfig {
	for _, path := range defaultConfigCandidates {
		if cfg, err := LoadViewConfig(path); err == nil {
			return cfg
		}
	}
	return DefaultViewConfig()
}

// MustLoadDefaultConfig is LoadDefaultConfig without the fallback. Panics
// if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *ViewConfig {
	for _, path := range defaultConfigCandidates {
		if cfg, err := LoadViewConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ViewConfig) Validate() error {
	if c.ListenAddr != nil && *c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.GRPCAddr != nil && *c.GRPCAddr == "" {
		return fmt.Errorf("grpc_addr must not be empty")
	}

	if c.ShutdownTimeout != nil && *c.ShutdownTimeout != "" {
		d, err := time.ParseDuration(*c.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout '%s': %w", *c.ShutdownTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("shutdown_timeout must be positive, got %s", d)
		}
	}

	for _, d := range c.Depths {
		if d < 0 || d > 3 {
			return fmt.Errorf("depths must be between 0 and 3, got %d", d)
		}
	}

	if c.Padding != nil && *c.Padding < 0 {
		return fmt.Errorf("padding must be non-negative, got %f", *c.Padding)
	}

	if c.MaxBoxesPerDepth != nil && *c.MaxBoxesPerDepth <= 0 {
		return fmt.Errorf("max_boxes_per_depth must be positive, got %d", *c.MaxBoxesPerDepth)
	}

	if c.ExportFormat != nil && !slices.Contains(ExportFormats, *c.ExportFormat) {
		return fmt.Errorf("export_format must be one of %v, got %q", ExportFormats, *c.ExportFormat)
	}

	if c.PlotSize != nil && *c.PlotSize != "" {
		l, err := vg.ParseLength(*c.PlotSize)
		if err != nil {
			return fmt.Errorf("invalid plot_size '%s': %w", *c.PlotSize, err)
		}
		if l <= 0 {
			return fmt.Errorf("plot_size must be positive, got %q", *c.PlotSize)
		}
	}

	if c.PlotPlane != nil {
		switch *c.PlotPlane {
		case "", "xy", "xz", "yz":
		default:
			return fmt.Errorf("plot_plane must be xy, xz or yz, got %q", *c.PlotPlane)
		}
	}

	return nil
}

// GetListenAddr returns the HTTP listen address or the default.
func (c *ViewConfig) GetListenAddr() string {
	if c.ListenAddr == nil {
		return ":8090"
	}
	return *c.ListenAddr
}

// GetGRPCAddr returns the gRPC listen address or the default.
func (c *ViewConfig) GetGRPCAddr() string {
	if c.GRPCAddr == nil {
		return ":50051"
	}
	return *c.GRPCAddr
}

// GetShutdownTimeout parses and returns the ShutdownTimeout as a time.Duration.
func (c *ViewConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == nil || *c.ShutdownTimeout == "" {
		return time.Second
	}
	d, err := time.ParseDuration(*c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return time.Second // default on parse error
	}
	return d
}

// GetEnableAdmin reports whether the debug and SQL admin routes are mounted.
func (c *ViewConfig) GetEnableAdmin() bool {
	if c.EnableAdmin == nil {
		return true
	}
	return *c.EnableAdmin
}

// GetDepths returns a copy of the wireframe depths or the default.
func (c *ViewConfig) GetDepths() []int {
	if len(c.Depths) == 0 {
		return []int{0, 1, 2, 3}
	}
	return slices.Clone(c.Depths)
}

// GetPadding returns the bounds padding or the default.
func (c *ViewConfig) GetPadding() float64 {
	if c.Padding == nil {
		return 0
	}
	return *c.Padding
}

// GetMaxBoxesPerDepth returns the HTML box cap or the default.
func (c *ViewConfig) GetMaxBoxesPerDepth() int {
	if c.MaxBoxesPerDepth == nil {
		return 2000
	}
	return *c.MaxBoxesPerDepth
}

// GetExportFormat returns the export format or the default.
func (c *ViewConfig) GetExportFormat() string {
	if c.ExportFormat == nil || *c.ExportFormat == "" {
		return "glb"
	}
	return *c.ExportFormat
}

// GetPlotSize returns the plot edge length or the default.
func (c *ViewConfig) GetPlotSize() string {
	if c.PlotSize == nil || *c.PlotSize == "" {
		return "16cm"
	}
	return *c.PlotSize
}

// GetPlotPlane returns the projection plane or the default.
func (c *ViewConfig) GetPlotPlane() string {
	if c.PlotPlane == nil || *c.PlotPlane == "" {
		return "xy"
	}
	return *c.PlotPlane
}

// GetScratchDir returns the hand-off directory, defaulting to the system
// temporary directory.
func (c *ViewConfig) GetScratchDir() string {
	if c.ScratchDir == nil || *c.ScratchDir == "" {
		return os.TempDir()
	}
	return *c.ScratchDir
}
