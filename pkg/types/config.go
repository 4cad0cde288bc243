package types

import "time"

// HTTPConfig holds shared settings for outbound HTTP requests.
type HTTPConfig struct {
	// Timeout bounds a whole request, including reading the response body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "grobid-jats/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRedirects is the number of redirects a request may follow.
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects" mapstructure:"max_redirects"`
}

// GrobidConfig holds settings for the Grobid conversion request.
type GrobidConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIPath is appended to the per-context host setting.
	APIPath string `json:"api_path" yaml:"api_path" mapstructure:"api_path"`

	// FileTypes lists the declared MIME types that may be sent to Grobid.
	FileTypes []string `json:"file_types" yaml:"file_types" mapstructure:"file_types"`

	// Doctypes lists the DOCTYPE system identifiers accepted in responses.
	Doctypes []string `json:"doctypes" yaml:"doctypes" mapstructure:"doctypes"`
}

// IngestConfig holds settings for storing conversion results.
type IngestConfig struct {
	// ScratchDir receives the temporary XML file written during ingestion.
	// Empty means the OS temp directory.
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir" mapstructure:"scratch_dir"`
}

// StoreConfig holds settings for the SQLite-backed host store.
type StoreConfig struct {
	// DataDir contains grobid.db and the files/ content tree.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds settings for the HTTP trigger surface.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings.
type Config struct {
	Grobid GrobidConfig `json:"grobid" yaml:"grobid" mapstructure:"grobid"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
