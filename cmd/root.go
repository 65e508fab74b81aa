package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/workload-radar/internal/dashboard"
	"github.com/spigell/workload-radar/internal/signals"
	"github.com/spigell/workload-radar/internal/workload"
)

const (
	app = "workload-radar"
)

type Config struct {
	Notion    *NotionConfig        `mapstructure:"notion"`
	Metrics   *MetricsConfig       `mapstructure:"metrics"`
	Cache     *CacheConfig         `mapstructure:"cache"`
	Serve     *ServeConfig         `mapstructure:"serve"`
	Alerts    dashboard.Thresholds `mapstructure:"alerts"`
	Recommend *struct {
		Top int `mapstructure:"top"`
	} `mapstructure:"recommend"`
	Export *struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"export"`
}

type NotionConfig struct {
	DatabaseID string                 `mapstructure:"database-id"`
	TokenFile  string                 `mapstructure:"token-file"`
	APIURL     string                 `mapstructure:"api-url"`
	Timeout    time.Duration          `mapstructure:"timeout"`
	PageSize   int                    `mapstructure:"page-size"`
	MaxPages   int                    `mapstructure:"max-pages"`
	RateLimit  float64                `mapstructure:"rate-limit"`
	Fields     workload.FieldMapping  `mapstructure:"fields"`
	Progress   workload.ProgressUnits `mapstructure:"progress"`
}

type MetricsConfig struct {
	Provider string         `mapstructure:"provider"`
	Seed     int64          `mapstructure:"seed"`
	Static   signals.Static `mapstructure:"static"`
	Gemini   *GeminiConfig  `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ServeConfig struct {
	Addr            string   `mapstructure:"addr"`
	RefreshSchedule string   `mapstructure:"refresh-schedule"`
	AllowedOrigins  []string `mapstructure:"allowed-origins"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "workload-radar reads a Notion workload database and reports load, alerts and skill matches",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("notion.token-file", "NOTION_TOKEN_FILE"); err != nil {
		log.Fatalf("binding NOTION_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("metrics.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("metrics.provider", signals.ProviderRandom)
	viper.SetDefault("serve.addr", ":8080")
	viper.SetDefault("serve.refresh-schedule", "@every 5m")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is workload-radar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Without a config file everything comes from defaults and env.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Notion == nil {
		config.Notion = &NotionConfig{}
	}
	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}
	if config.Cache == nil {
		config.Cache = &CacheConfig{}
	}
	if config.Serve == nil {
		config.Serve = &ServeConfig{}
	}

	return config, nil
}

func (c *Config) topK() int {
	if c.Recommend == nil {
		return 0
	}
	return c.Recommend.Top
}

func (c *Config) exportDir() string {
	if c.Export == nil {
		return ""
	}
	return c.Export.Dir
}
