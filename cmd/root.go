package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/telemetry"
)

const (
	app = "hh-interviewer"
)

type Config struct {
	Server    *ServerConfig     `mapstructure:"server"`
	Session   *SessionConfig    `mapstructure:"session"`
	AI        *AIConfig         `mapstructure:"ai"`
	Log       *LogConfig        `mapstructure:"log"`
	Telemetry *telemetry.Config `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Listen            string        `mapstructure:"listen"`
	GenerationTimeout time.Duration `mapstructure:"generation-timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout"`
	AllowedOrigin     string        `mapstructure:"allowed-origin"`
	MaxBodyBytes      int64         `mapstructure:"max-body-bytes"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup-interval"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max-size-mb"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAgeDays int    `mapstructure:"max-age-days"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-interviewer runs AI driven mock job interviews",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	for key, env := range map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.openai.api-key-file": "OPENAI_API_KEY_FILE",
		"ai.openai.base-url":     "OPENAI_BASE_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetEnvPrefix("HH_INTERVIEWER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("server.listen", ":3001")
	viper.SetDefault("server.generation-timeout", 60*time.Second)
	viper.SetDefault("server.shutdown-timeout", 10*time.Second)
	viper.SetDefault("server.allowed-origin", "*")
	viper.SetDefault("server.max-body-bytes", 64<<10)

	viper.SetDefault("session.ttl", time.Duration(0))
	viper.SetDefault("session.cleanup-interval", time.Minute)

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.openai.api-key", "")
	viper.SetDefault("ai.openai.api-key-file", "")
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.openai.base-url", "")

	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max-size-mb", 10)
	viper.SetDefault("log.max-backups", 3)
	viper.SetDefault("log.max-age-days", 28)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dir", "logs")
	viper.SetDefault("telemetry.metric-interval", 10*time.Second)
}

func initConfig() {
	// version works without any config, even a broken one.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional: defaults and environment are enough to serve.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func newLogger(config *Config) (*zap.Logger, error) {
	opts := logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	}

	if config != nil && config.Log != nil {
		opts.File = config.Log.File
		opts.MaxSizeMB = config.Log.MaxSizeMB
		opts.MaxBackups = config.Log.MaxBackups
		opts.MaxAgeDays = config.Log.MaxAgeDays
	}

	return logger.New(opts)
}
