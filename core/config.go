package core

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug bool
		Env   string // DEV (default), QA, PROD
		Build string

		Server   ServerConfig
		Database DatabaseConfig
		Mirror   MirrorConfig

		// AdminToken is the static shared secret protecting the admin endpoints.
		AdminToken string

		// TargetGrade scopes timetable ingestion: sectioned files only keep
		// sections of this grade. 0 disables the grade filter.
		TargetGrade int

		// DefaultGrade is the leading grade digit for student IDs synthesized
		// from class and number when the file declares none.
		DefaultGrade int

		RollbarToken string
	}

	ServerConfig struct {
		Address         string
		DebugAddress    string
		DisableReqLogs  bool
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Path string
	}

	MirrorConfig struct {
		URL    string
		APIKey string
		Schema string
	}
)

// Configured reports whether a remote mirror has been set up at all.
func (m MirrorConfig) Configured() bool {
	return m.URL != "" || m.APIKey != ""
}

// Validate rejects a half-configured mirror: a URL without an API key (or the
// reverse) is a deployment mistake, not an unconfigured mirror.
func (m MirrorConfig) Validate() error {
	if (m.URL == "") != (m.APIKey == "") {
		return errors.New("mirror URL and API key must be set together")
	}
	return nil
}

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("env", "DEV")
	conf.SetDefault("build", "dev")
	conf.SetDefault("server.address", ":8501")
	conf.SetDefault("server.debugAddress", ":8502")
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("database.path", "gs-timetable.db")
	conf.SetDefault("adminToken", "0114")
	conf.SetDefault("targetGrade", 2)
	conf.SetDefault("defaultGrade", 2)
	conf.SetDefault("mirror.url", "")
	conf.SetDefault("mirror.apiKey", "")
	conf.SetDefault("mirror.schema", "public")
	conf.SetDefault("rollbarToken", "")

	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err = godotenv.Load(".env"); err != nil {
			log.Fatalf("config.godotenv: %v", err)
		}
	}

	conf.SetEnvPrefix("GST")
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	return &Config{
		Debug: conf.GetBool("debug"),
		Env:   conf.GetString("env"),
		Build: conf.GetString("build"),
		Server: ServerConfig{
			Address:         conf.GetString("server.address"),
			DebugAddress:    conf.GetString("server.debugAddress"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Path: conf.GetString("database.path"),
		},
		Mirror: MirrorConfig{
			URL:    strings.TrimRight(conf.GetString("mirror.url"), "/"),
			APIKey: conf.GetString("mirror.apiKey"),
			Schema: conf.GetString("mirror.schema"),
		},
		AdminToken:   conf.GetString("adminToken"),
		TargetGrade:  conf.GetInt("targetGrade"),
		DefaultGrade: conf.GetInt("defaultGrade"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
}
