package pipeline

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lexvault/lexvault/pkg/logging"
)

// PipelineConfig holds complete pipeline configuration
type PipelineConfig struct {
	// Logging configuration
	Logging *logging.LogConfig `json:"logging"`

	// Storage configuration
	Storage *StorageConfig `json:"storage"`

	// Processing configuration
	Processing *ProcessingConfig `json:"processing"`

	// Temporal configuration
	Temporal *TemporalConfig `json:"temporal"`

	// Server configuration
	Server *ServerConfig `json:"server"`

	// Data paths
	DataPaths *DataPathsConfig `json:"data_paths"`
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// ProcessingConfig holds extraction pipeline settings
type ProcessingConfig struct {
	// Extraction settings
	MaxFileSize    int64    `json:"max_file_size"` // bytes
	OCRLanguages   []string `json:"ocr_languages"` // tesseract languages, in priority order
	TessdataPrefix string   `json:"tessdata_prefix"`
	RenderDPI      int      `json:"render_dpi"`
	LinesPerPage   int      `json:"lines_per_page"` // for synthesized PDFs

	// Accepted upload extensions, lowercase without dot
	AllowedExtensions []string `json:"allowed_extensions"`

	// Timeout settings
	ExtractionTimeout time.Duration `json:"extraction_timeout"`
}

// TemporalConfig holds the workflow engine connection settings.
type TemporalConfig struct {
	HostPort  string `json:"host_port"`
	Namespace string `json:"namespace"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	MaxRequestSize int64         `json:"max_request_size"`
	CORSOrigins    string        `json:"cors_origins"`
}

// DataPathsConfig holds all data directory paths
type DataPathsConfig struct {
	// Root data directory
	DataRoot string `json:"data_root"`

	// Document storage paths
	UploadDir  string `json:"upload_dir"`
	VersionDir string `json:"version_dir"`

	// Log paths
	LogDir string `json:"log_dir"`

	// Temporary paths
	TempDir string `json:"temp_dir"`
}

// DefaultPipelineConfig returns a complete default configuration
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Logging: &logging.LogConfig{
			Level:      "info",
			Format:     "json",
			OutputFile: "logs/lexvault.log",
			Console:    true,
		},

		Storage: &StorageConfig{
			Driver: "memory",
		},

		Processing: &ProcessingConfig{
			MaxFileSize:       50 * 1024 * 1024, // 50MB
			OCRLanguages:      []string{"fra", "eng"},
			RenderDPI:         300,
			LinesPerPage:      55,
			AllowedExtensions: []string{"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png", "tiff", "bmp", "gif"},
			ExtractionTimeout: 30 * time.Minute,
		},

		Temporal: &TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},

		Server: &ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxRequestSize: 100 * 1024 * 1024, // 100MB
			CORSOrigins:    "*",
		},

		DataPaths: &DataPathsConfig{
			DataRoot:   "./data",
			UploadDir:  "./data/uploads",
			VersionDir: "./data/versions",
			LogDir:     "./logs",
			TempDir:    "./data/temp",
		},
	}
}

// ProductionPipelineConfig returns production-ready configuration
func ProductionPipelineConfig() *PipelineConfig {
	config := DefaultPipelineConfig()

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Console = false

	config.Storage.Driver = "postgres"

	return config
}

// DevelopmentPipelineConfig returns development configuration
func DevelopmentPipelineConfig() *PipelineConfig {
	config := DefaultPipelineConfig()

	config.Logging.Level = "debug"
	config.Logging.Format = "pretty"
	config.Logging.Console = true

	return config
}

// FromEnv overlays LEXVAULT_* environment variables onto the configuration.
func (c *PipelineConfig) FromEnv() *PipelineConfig {
	overlayString(&c.Storage.Driver, "LEXVAULT_STORAGE_DRIVER")
	overlayString(&c.Storage.DSN, "LEXVAULT_DATABASE_DSN")

	overlayString(&c.Temporal.HostPort, "LEXVAULT_TEMPORAL_HOSTPORT")
	overlayString(&c.Temporal.Namespace, "LEXVAULT_TEMPORAL_NAMESPACE")

	overlayString(&c.Server.Host, "LEXVAULT_HOST")
	overlayInt(&c.Server.Port, "LEXVAULT_PORT")
	overlayString(&c.Server.CORSOrigins, "LEXVAULT_CORS_ORIGINS")

	overlayString(&c.Logging.Level, "LEXVAULT_LOG_LEVEL")
	overlayString(&c.Logging.Format, "LEXVAULT_LOG_FORMAT")

	overlayString(&c.DataPaths.DataRoot, "LEXVAULT_DATA_ROOT")
	overlayString(&c.DataPaths.UploadDir, "LEXVAULT_UPLOAD_DIR")
	overlayString(&c.DataPaths.VersionDir, "LEXVAULT_VERSION_DIR")
	overlayString(&c.DataPaths.TempDir, "LEXVAULT_TEMP_DIR")

	if langs := os.Getenv("LEXVAULT_OCR_LANGUAGES"); langs != "" {
		c.Processing.OCRLanguages = strings.Split(langs, "+")
	}
	overlayString(&c.Processing.TessdataPrefix, "LEXVAULT_TESSDATA_PREFIX")
	overlayInt(&c.Processing.RenderDPI, "LEXVAULT_RENDER_DPI")

	return c
}

// AllowsExtension reports whether uploads with the given extension (lowercase,
// no dot) are accepted.
func (p *ProcessingConfig) AllowsExtension(ext string) bool {
	for _, allowed := range p.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func overlayString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func overlayInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			*dst = n
		}
	}
}
