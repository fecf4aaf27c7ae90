// Package config loads the photo service configuration from env vars, an optional .env file and an optional
// config file, and validates it before anything else starts.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	cst "wuyrush.io/photo/constants"
	pe "wuyrush.io/photo/errors"
)

const (
	AuthModeSession = "session"
	AuthModeBasic   = "basic"
)

// Config is passed explicitly into every component constructor; nothing reads env vars after Load returns
type Config struct {
	Host              string
	Port              string `validate:"required,numeric"`
	StorageConnection string `validate:"required"`

	AuthDisabled         bool
	AuthMode             string `validate:"oneof=session basic"`
	SessionSecret        string
	SessionName          string `validate:"required"`
	BasicCredentialsFile string

	ReqBodySizeMaxByte  int64   `validate:"gt=0"`
	ImagePixelsMax      int64   `validate:"gt=0"`
	RateLimit           float64 `validate:"gte=0"`
	RateBurst           int     `validate:"gte=1"`
	TrustForwardedProto bool

	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`

	StartupTimeout  time.Duration `validate:"gte=0"`
	ShutdownTimeout time.Duration `validate:"gte=0"`
	Verbose         bool
}

// Addr returns the address the http server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(cst.EnvAppHost, "")
	v.SetDefault(cst.EnvAppPort, "8080")
	v.SetDefault(cst.EnvStorageConnection, "mem://?size=1024")
	v.SetDefault(cst.EnvAuthDisabled, false)
	v.SetDefault(cst.EnvAuthMode, AuthModeSession)
	v.SetDefault(cst.EnvSessionSecret, "")
	v.SetDefault(cst.EnvSessionName, "photo-session")
	v.SetDefault(cst.EnvBasicCredentialsFile, "")
	v.SetDefault(cst.EnvReqBodySizeMaxByte, 10*1024*1024)
	v.SetDefault(cst.EnvImagePixelsMax, 50000000)
	v.SetDefault(cst.EnvRateLimit, 0)
	v.SetDefault(cst.EnvRateBurst, 1)
	v.SetDefault(cst.EnvTrustForwardedProto, false)
	v.SetDefault(cst.EnvKafkaBrokers, "")
	v.SetDefault(cst.EnvKafkaTopic, "photo-events")
	v.SetDefault(cst.EnvStartupTimeout, 10*time.Second)
	v.SetDefault(cst.EnvShutdownTimeout, 10*time.Second)
	v.SetDefault(cst.EnvVerbose, false)
}

// LoadEnvFile loads key-value pairs from the given dotenv file into the process env. Variables already set
// in the env win over the file.
func LoadEnvFile(path string) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return pe.NewBadInput("invalid env file path").WithCause(err)
	}
	if err := godotenv.Load(p); err != nil {
		return pe.NewBadInput("error loading env file " + p).WithCause(err)
	}
	return nil
}

// Load reads configuration from env vars and, if configFile is not empty, from the given file. Env vars
// take precedence over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	if configFile != "" {
		p, err := homedir.Expand(configFile)
		if err != nil {
			return nil, pe.NewBadInput("invalid config file path").WithCause(err)
		}
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, pe.NewBadInput("error reading config file " + p).WithCause(err)
		}
	}
	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Host:                 v.GetString(cst.EnvAppHost),
		Port:                 v.GetString(cst.EnvAppPort),
		StorageConnection:    v.GetString(cst.EnvStorageConnection),
		AuthDisabled:         v.GetBool(cst.EnvAuthDisabled),
		AuthMode:             strings.ToLower(v.GetString(cst.EnvAuthMode)),
		SessionSecret:        v.GetString(cst.EnvSessionSecret),
		SessionName:          v.GetString(cst.EnvSessionName),
		BasicCredentialsFile: v.GetString(cst.EnvBasicCredentialsFile),
		ReqBodySizeMaxByte:   v.GetInt64(cst.EnvReqBodySizeMaxByte),
		ImagePixelsMax:       v.GetInt64(cst.EnvImagePixelsMax),
		RateLimit:            v.GetFloat64(cst.EnvRateLimit),
		RateBurst:            v.GetInt(cst.EnvRateBurst),
		TrustForwardedProto:  v.GetBool(cst.EnvTrustForwardedProto),
		KafkaBrokers:         splitList(v.GetString(cst.EnvKafkaBrokers)),
		KafkaTopic:           v.GetString(cst.EnvKafkaTopic),
		StartupTimeout:       v.GetDuration(cst.EnvStartupTimeout),
		ShutdownTimeout:      v.GetDuration(cst.EnvShutdownTimeout),
		Verbose:              v.GetBool(cst.EnvVerbose),
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks field constraints plus the ones spanning several fields
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return pe.NewBadInput("invalid configuration").WithCause(err)
	}
	if c.AuthDisabled {
		return nil
	}
	switch c.AuthMode {
	case AuthModeSession:
		if c.SessionSecret == "" {
			return pe.NewBadInput(cst.EnvSessionSecret + " is required when session auth is enabled")
		}
	case AuthModeBasic:
		if c.BasicCredentialsFile == "" {
			return pe.NewBadInput(cst.EnvBasicCredentialsFile + " is required when basic auth is enabled")
		}
	}
	return nil
}
