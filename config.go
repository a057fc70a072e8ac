package serialmon

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPortName     = "/dev/ttyUSB0"
	DefaultBaudRate     = Baud115200
	DefaultReadTimeout  = time.Second
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultMaxLineSize bounds a single record. Longer records are handed
	// out truncated at this size.
	DefaultMaxLineSize = 4096

	// AbsoluteMaxLineSize is the largest MaxLineSize ValidateConfig accepts.
	AbsoluteMaxLineSize = 1024 * 1024

	// EnvPrefix prefixes every environment override, e.g. SERIALMON_PORT_NAME
	// or SERIALMON_LOGGING_LEVEL.
	EnvPrefix = "SERIALMON"
)

// Config holds everything needed to run the monitor. Framing is not
// configurable; devices are always opened 8-N-1.
type Config struct {
	// PortName is the path or name of the serial device, e.g. /dev/ttyUSB0 or COM3.
	PortName string `mapstructure:"port_name" json:"port_name"`

	// BaudRate is handed to the driver as is; the open call rejects rates the
	// device can't use.
	BaudRate int `mapstructure:"baud_rate" json:"baud_rate"`

	// ReadTimeout bounds how long a single record read may block.
	ReadTimeout time.Duration `mapstructure:"read_timeout" json:"read_timeout" validate:"gte=0"`

	// PollInterval is how long the monitor waits after an availability
	// check that found no data.
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval" validate:"gte=0"`

	MaxLineSize int `mapstructure:"max_line_size" json:"max_line_size" validate:"gt=0,lte=1048576"`

	Logging LogConfig `mapstructure:"logging" json:"logging"`
}

// LogConfig configures the diagnostic log stream. It is independent of the
// console output the monitor prints for each record.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`

	// File, when set, receives JSON log lines rotated by size.
	File       string `mapstructure:"file" json:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// DefaultConfig returns the configuration the monitor uses when nothing is
// overridden.
func DefaultConfig() Config {
	return Config{
		PortName:     DefaultPortName,
		BaudRate:     DefaultBaudRate.Int(),
		ReadTimeout:  DefaultReadTimeout,
		PollInterval: DefaultPollInterval,
		MaxLineSize:  DefaultMaxLineSize,
		Logging: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig layers defaults, the optional config file at path and
// SERIALMON_* environment variables, then validates the result. An empty
// path skips the file.
func LoadConfig(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("port_name", def.PortName)
	v.SetDefault("baud_rate", def.BaudRate)
	v.SetDefault("read_timeout", def.ReadTimeout)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("max_line_size", def.MaxLineSize)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.max_size_mb", def.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", def.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", def.Logging.Compress)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

