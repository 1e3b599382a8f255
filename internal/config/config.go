// Package config loads the static application configuration from simpleservers.yml and
// SIMPLESERVERS_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/gin-gonic/gin"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	configName = "simpleservers"
	envPrefix  = "simpleservers"
)

var (
	ErrReadConfig   = errors.New("failed to read config file")
	ErrFormatConfig = errors.New("config file format invalid")
	ErrInvalidMode  = errors.New("invalid run mode")
	ErrServerConfig = errors.New("invalid server entry")
)

type runMode string

const (
	ReleaseMode runMode = gin.ReleaseMode
	DebugMode   runMode = gin.DebugMode
	TestMode    runMode = gin.TestMode
)

func (rm runMode) String() string {
	return string(rm)
}

type generalConfig struct {
	Mode runMode `mapstructure:"mode"`
	// Source is stamped on ban entries created through the gateway.
	Source string `mapstructure:"source"`
}

type httpConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	HTTPLog     bool     `mapstructure:"http_log"`
	CORSEnabled bool     `mapstructure:"cors_enabled"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	PProf       bool     `mapstructure:"pprof"`
	Prometheus  bool     `mapstructure:"prometheus"`
}

func (h httpConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

type databaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	LogQueries  bool   `mapstructure:"log_queries"`
}

// Enabled is false when no DSN is configured, in which case in-memory repositories are used.
func (d databaseConfig) Enabled() bool {
	return d.DSN != ""
}

type serverConfig struct {
	ServerID     uuid.UUID `mapstructure:"server_id"`
	Name         string    `mapstructure:"name"`
	RootPath     string    `mapstructure:"root_path"`
	RCONAddress  string    `mapstructure:"rcon_address"`
	RCONPassword string    `mapstructure:"rcon_password"`
}

// Server converts the entry. Entries without an explicit ID get a stable one derived from the name.
func (s serverConfig) Server() servers.Server {
	server := servers.NewServer(s.Name, s.RootPath)
	if !s.ServerID.IsNil() {
		server.ServerID = s.ServerID
	}

	server.RCONAddress = s.RCONAddress
	server.RCONPassword = s.RCONPassword

	return server
}

type playersConfig struct {
	DefaultHistoryLimit int   `mapstructure:"default_history_limit"`
	DefaultCapacity     int   `mapstructure:"default_capacity"`
	LogWindow           int64 `mapstructure:"log_window"`
}

type logConfig struct {
	Level log.Level `mapstructure:"level"`
	File  string    `mapstructure:"file"`
}

type sentryConfig struct {
	DSN        string  `mapstructure:"dsn"`
	Tracing    bool    `mapstructure:"tracing"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type discordConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

type rconConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
	Interval    time.Duration `mapstructure:"interval"`
}

type Config struct {
	General  generalConfig  `mapstructure:"general"`
	HTTP     httpConfig     `mapstructure:"http"`
	Database databaseConfig `mapstructure:"database"`
	Servers  []serverConfig `mapstructure:"servers"`
	Players  playersConfig  `mapstructure:"players"`
	Log      logConfig      `mapstructure:"logging"`
	Sentry   sentryConfig   `mapstructure:"sentry"`
	Discord  discordConfig  `mapstructure:"discord"`
	RCON     rconConfig     `mapstructure:"rcon"`
}

// StaticServers returns the servers declared in the config file.
func (c Config) StaticServers() []servers.Server {
	out := make([]servers.Server, 0, len(c.Servers))
	for _, entry := range c.Servers {
		out = append(out, entry.Server())
	}

	return out
}

// Read loads the configuration. When configFile is empty the default search paths are used and a
// missing file is not an error; defaults and environment variables still apply.
func Read(configFile string) (Config, error) {
	reader := newReader(configFile)

	var config Config
	if errReadConfig := reader.ReadInConfig(); errReadConfig != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(errReadConfig, &notFound) {
			return config, errors.Join(errReadConfig, ErrReadConfig)
		}
	}

	if errUnmarshal := reader.Unmarshal(&config, viper.DecodeHook(decodeHooks())); errUnmarshal != nil {
		return config, errors.Join(errUnmarshal, ErrFormatConfig)
	}

	if errValidate := config.validate(); errValidate != nil {
		return config, errValidate
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.General.Mode {
	case ReleaseMode, DebugMode, TestMode:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMode, c.General.Mode)
	}

	if strings.HasPrefix(c.Database.DSN, "pgx://") {
		c.Database.DSN = strings.Replace(c.Database.DSN, "pgx://", "postgres://", 1)
	}

	for idx, entry := range c.Servers {
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("%w: servers[%d]: %w", ErrServerConfig, idx, servers.ErrInvalidName)
		}

		if strings.TrimSpace(entry.RootPath) == "" {
			return fmt.Errorf("%w: servers[%d]: %w", ErrServerConfig, idx, servers.ErrInvalidRoot)
		}
	}

	return nil
}

// decodeHooks converts duration strings (5s, 1m), comma separated lists and UUID strings.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

func newReader(configFile string) *viper.Viper {
	reader := viper.New()

	if configFile != "" {
		reader.SetConfigFile(configFile)
	} else {
		if home, errHomeDir := homedir.Dir(); errHomeDir == nil {
			reader.AddConfigPath(home)
		}

		reader.AddConfigPath(".")
		reader.SetConfigName(configName)
		reader.SetConfigType("yml")
	}

	reader.SetEnvPrefix(envPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	reader.AutomaticEnv()

	defaultConfig := map[string]any{
		"general.mode":                  ReleaseMode,
		"general.source":                "SimpleServers",
		"http.host":                     "127.0.0.1",
		"http.port":                     6008,
		"http.http_log":                 false,
		"http.cors_enabled":             false,
		"http.cors_origins":             []string{"http://localhost:6008"},
		"http.pprof":                    false,
		"http.prometheus":               true,
		"database.dsn":                  "",
		"database.auto_migrate":         true,
		"database.log_queries":          false,
		"players.default_history_limit": 150,
		"players.default_capacity":      20,
		"players.log_window":            2 * 1024 * 1024,
		"logging.level":                 log.Info,
		"logging.file":                  "",
		"sentry.dsn":                    "",
		"sentry.tracing":                false,
		"sentry.sample_rate":            1.0,
		"discord.enabled":               false,
		"discord.token":                 "",
		"discord.channel_id":            "",
		"rcon.enabled":                  true,
		"rcon.dial_timeout":             "5s",
		"rcon.exec_timeout":             "15s",
		"rcon.interval":                 "0s",
	}

	for configKey, value := range defaultConfig {
		reader.SetDefault(configKey, value)
	}

	return reader
}
