package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TracingConfig controls the OTLP exporter. Disabled by default; the tracer
// provider degrades to a noop when off.
type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

// Config carries every runtime setting. Values come from defaults, an
// optional config.yaml overlay, then environment variables (a local .env is
// loaded first when present).
type Config struct {
	Environment string `yaml:"environment"`
	Addr        string `yaml:"addr"`

	DataDir   string `yaml:"data_dir"`
	TempDir   string `yaml:"temp_dir"`
	BackupDir string `yaml:"backup_dir"`

	AuditDBPath string `yaml:"audit_db"`

	TesseractBin string `yaml:"tesseract_bin"`

	Tracing TracingConfig `yaml:"tracing"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func defaults() Config {
	return Config{
		Environment:  "development",
		Addr:         ":8000",
		DataDir:      "data",
		TempDir:      "temp_batches",
		BackupDir:    "backups",
		AuditDBPath:  "data/audit.db",
		TesseractBin: "tesseract",
		Tracing: TracingConfig{
			ExporterProtocol: "grpc",
			SamplingRatio:    0.1,
		},
	}
}

// Load builds the configuration. Missing .env and config.yaml files are not
// errors; a malformed config.yaml is.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	file := os.Getenv("OCRINVOICES_CONFIG")
	if file == "" {
		file = "config.yaml"
	}
	if data, err := os.ReadFile(file); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", file, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "OCRINVOICES_ENV")
	setString(&cfg.Addr, "OCRINVOICES_ADDR")
	setString(&cfg.DataDir, "OCRINVOICES_DATA_DIR")
	setString(&cfg.TempDir, "OCRINVOICES_TEMP_DIR")
	setString(&cfg.BackupDir, "OCRINVOICES_BACKUP_DIR")
	setString(&cfg.AuditDBPath, "OCRINVOICES_AUDIT_DB")
	setString(&cfg.TesseractBin, "OCRINVOICES_TESSERACT_BIN")

	setBool(&cfg.Tracing.Enabled, "OCRINVOICES_TRACING_ENABLED")
	setString(&cfg.Tracing.ExporterEndpoint, "OCRINVOICES_TRACING_ENDPOINT")
	setString(&cfg.Tracing.ExporterProtocol, "OCRINVOICES_TRACING_PROTOCOL")
	setFloat(&cfg.Tracing.SamplingRatio, "OCRINVOICES_TRACING_RATIO")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}
