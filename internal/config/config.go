// Package config loads and manages the application configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config mirrors the structure of config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig holds all datastore connection settings.
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds token verification settings. Token issuance lives in the
// identity service; this application only validates what it is handed.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LLMConfig holds prompt settings. Provider selection and API keys are not
// configured here: they ride on every chat request.
type LLMConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
}

// defaultSystemPrompt defines the assistant persona used when the config
// file does not override it.
const defaultSystemPrompt = "You are LexIA, a legal assistant specialized in Spanish and European law. " +
	"Reply using clear and technical language. When relevant, mention the applicable norm " +
	"(Law, EU Directive, article) and key jurisprudence. Be concise but thorough. If asked " +
	"about other countries, indicate that you can only provide advice on Spanish/European legislation."

// Load reads the YAML file at configPath and unmarshals it into a Config.
func Load(configPath string) (Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if conf.LLM.SystemPrompt == "" {
		conf.LLM.SystemPrompt = defaultSystemPrompt
	}
	return conf, nil
}
