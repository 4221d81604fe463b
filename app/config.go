package parlor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/exp/maps"

	"github.com/spf13/viper"
)

const (
	// MemoryBackend keeps messages and users in process memory.
	MemoryBackend = "memory"
	// SQLiteBackend persists messages and users in a SQLite file.
	SQLiteBackend = "sqlite"
)

type Config struct {
	// Port is the port number to listen on. The default is 8080.
	Port int `validate:"required,port"`
	// Hostname is the hostname to listen on. The default is 0.0.0.0.
	Hostname string `validate:"required"`
	// AllowedOrigins is a list of origins that are allowed to connect to the
	// server. The default is ["*"].
	AllowedOrigins []string
	Storage        struct {
		// Backend selects the storage implementation: memory or sqlite.
		Backend string `validate:"required,oneof=memory sqlite"`
		SQLite  struct {
			// File is the path to the SQLite database file.
			File string
			// Migrations is the path to the directory holding the migration files.
			Migrations string
		}
	}
	Room struct {
		// HistoryLimit is how many recent messages a joining client receives.
		HistoryLimit int `validate:"required,min=1"`
		// TypingTTL is how long a typing indicator stays active without a refresh.
		TypingTTL time.Duration `validate:"required"`
		// StoreTimeout bounds every storage operation.
		StoreTimeout time.Duration `validate:"required"`
	}
	valid bool
}

// LoadConfig loads the configuration from the config file and environment
// variables. Invalid values are not rejected here; they are caught in the
// validation step.
func LoadConfig() (*Config, error) {
	config := &Config{}
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 8080)
	viper.SetDefault("hostname", "0.0.0.0")
	viper.SetDefault("allowedorigins", []string{"*"})
	viper.SetDefault("storage.backend", MemoryBackend)
	viper.SetDefault("storage.sqlite.file", "./parlor.db")
	viper.SetDefault("storage.sqlite.migrations", "./migrations")
	viper.SetDefault("room.historylimit", 50)
	viper.SetDefault("room.typingttl", "1s")
	viper.SetDefault("room.storetimeout", "5s")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.Unmarshal(&config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		),
	); err != nil {
		// defer error to validation step
		return config, nil
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.valid {
		return nil
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Storage.Backend == SQLiteBackend {
		if c.Storage.SQLite.File == "" || c.Storage.SQLite.Migrations == "" {
			return fmt.Errorf("storage.sqlite.file and storage.sqlite.migrations are required for the sqlite backend")
		}
	}
	c.valid = true
	return nil
}

func FormatValidationErrors(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	trans, _ := uniTrans.GetTranslator("en")
	translated := errs.Translate(trans)

	var sb strings.Builder
	for _, v := range maps.Values(translated) {
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	return sb.String()
}
