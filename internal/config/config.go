package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sanitize modes for input files.
const (
	SanitizeStream  = "stream"  // clean while reading, leave the file untouched
	SanitizeInPlace = "inplace" // rewrite the file on disk before reading
	SanitizeOff     = "off"
)

// InputsConfig holds the paths of the three input datasets.
type InputsConfig struct {
	// ProtocolTable may be empty, in which case the builtin IANA table is used.
	ProtocolTable string `yaml:"protocol_table"`
	LookupTable   string `yaml:"lookup_table"`
	FlowLog       string `yaml:"flow_log"`
}

// ReportsConfig holds the destinations of the two CSV reports.
type ReportsConfig struct {
	TagCounts          string `yaml:"tag_counts"`
	PortProtocolCounts string `yaml:"port_protocol_counts"`
}

// GobConfig holds settings for the gob snapshot writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines a single report sink.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Gob        GobConfig        `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	// File enables the rotating file backend when set.
	File          string `yaml:"file"`
	MaxSizeBytes  int64  `yaml:"max_size_bytes"`
	RotationCount uint   `yaml:"rotation_count"`
}

// PublisherConfig holds settings for announcing finished runs over NATS.
type PublisherConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds settings for the ft-api server.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	GRPCAddr   string `yaml:"grpc_addr"`
	// MaxBodyBytes limits the size of an uploaded flow log.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Inputs    InputsConfig    `yaml:"inputs"`
	Sanitize  string          `yaml:"sanitize"`
	Reports   ReportsConfig   `yaml:"reports"`
	Writers   []WriterDef     `yaml:"writers"`
	Log       LogConfig       `yaml:"log"`
	Publisher PublisherConfig `yaml:"publisher"`
	API       APIConfig       `yaml:"api"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Inputs: InputsConfig{
			ProtocolTable: "input_data/protocol_numbers.csv",
			LookupTable:   "input_data/lookup_table.csv",
			FlowLog:       "input_data/flow_logs.txt",
		},
		Sanitize: SanitizeStream,
		Reports: ReportsConfig{
			TagCounts:          "output_data/tag_counts.csv",
			PortProtocolCounts: "output_data/port_protocol_counts.csv",
		},
		Writers: []WriterDef{{Type: "csv", Enabled: true}},
		Log: LogConfig{
			Level:         "INFO",
			MaxSizeBytes:  10 << 20,
			RotationCount: 5,
		},
		Publisher: PublisherConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "flowtagger.runs",
		},
		API: APIConfig{
			ListenAddr:   ":8080",
			MaxBodyBytes: 64 << 20,
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Fields missing from the file keep their Default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Sanitize {
	case SanitizeStream, SanitizeInPlace, SanitizeOff:
	case "":
		c.Sanitize = SanitizeStream
	default:
		return fmt.Errorf("invalid sanitize mode '%s'", c.Sanitize)
	}
	if c.Inputs.LookupTable == "" {
		return fmt.Errorf("inputs.lookup_table must be set")
	}
	if c.Inputs.FlowLog == "" {
		return fmt.Errorf("inputs.flow_log must be set")
	}
	if c.Publisher.Enabled && c.Publisher.Subject == "" {
		return fmt.Errorf("publisher.subject must be set when the publisher is enabled")
	}
	return nil
}
