package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-matcher/internal/ai/enrich"
	"github.com/spigell/resume-matcher/internal/ai/gateway"
	"github.com/spigell/resume-matcher/internal/cache"
	"github.com/spigell/resume-matcher/internal/chat"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"

	providerGateway = "gateway"
	providerGemini  = "gemini"
)

type Config struct {
	AI    *AIConfig    `mapstructure:"ai" validate:"required"`
	Cache *CacheConfig `mapstructure:"cache" validate:"required"`
	Store *StoreConfig `mapstructure:"store" validate:"required"`
	Chat  *ChatConfig  `mapstructure:"chat" validate:"required"`
}

type AIConfig struct {
	Enabled         bool           `mapstructure:"enabled"`
	Provider        string         `mapstructure:"provider" validate:"oneof=gateway gemini"`
	Timeout         time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	MaxPayloadBytes int            `mapstructure:"max-payload-bytes" validate:"gt=0"`
	Gateway         *GatewayConfig `mapstructure:"gateway" validate:"required"`
	Gemini          *GeminiConfig  `mapstructure:"gemini" validate:"required"`
}

type GatewayConfig struct {
	URL               string        `mapstructure:"url" validate:"required,url"`
	Model             string        `mapstructure:"model" validate:"required"`
	APIKey            string        `mapstructure:"api-key" json:"-"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	Temperature       *float64      `mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxPayloadBytes   int           `mapstructure:"max-payload-bytes" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second" validate:"gte=0"`
}

type GeminiConfig struct {
	Model       string   `mapstructure:"model" validate:"required"`
	APIKey      string   `mapstructure:"api-key" json:"-"`
	APIKeyFile  string   `mapstructure:"api-key-file"`
	Temperature *float64 `mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxRetries  int      `mapstructure:"max-retries" validate:"gte=0"`
}

type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
	RedisURL string        `mapstructure:"redis-url" validate:"omitempty,url"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ChatConfig struct {
	HistoryLimit      int `mapstructure:"history-limit" validate:"gt=0"`
	ResumePrefixLimit int `mapstructure:"resume-prefix-limit" validate:"gt=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher scores how well a resume fits a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", providerGateway)
	v.SetDefault("ai.timeout", enrich.DefaultTimeout)
	v.SetDefault("ai.max-payload-bytes", enrich.DefaultMaxPayloadBytes)
	v.SetDefault("ai.gateway.url", gateway.DefaultURL)
	v.SetDefault("ai.gateway.model", gateway.DefaultModel)
	v.SetDefault("ai.gateway.api-key", "")
	v.SetDefault("ai.gateway.api-key-file", "")
	v.SetDefault("ai.gateway.timeout", gateway.DefaultTimeout)
	v.SetDefault("ai.gateway.max-payload-bytes", gateway.DefaultMaxPayloadBytes)
	v.SetDefault("ai.gateway.requests-per-second", 0)
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("cache.redis-url", "")
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("chat.history-limit", chat.DefaultHistoryLimit)
	v.SetDefault("chat.resume-prefix-limit", chat.DefaultResumePrefixLimit)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Keys without defaults are only seen by Unmarshal when bound explicitly.
	for _, key := range []string{"ai.gateway.temperature", "ai.gemini.temperature"} {
		if err := v.BindEnv(key); err != nil {
			log.Fatalf("binding %s environment variable: %v", key, err)
		}
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+app, "store.db")
	}
	return filepath.Join(home, "."+app, "store.db")
}

func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig reads an explicit config file, or resume-matcher.yaml from the
// current directory when present.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(app)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
