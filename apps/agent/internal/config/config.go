package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the agent's runtime settings. Decision behaviour lives in
// the policy config file it points at.
type Config struct {
	Addr      string `env:"AGENT_ADDR" envDefault:":8080"`
	ReadLimit int64  `env:"AGENT_READ_LIMIT" envDefault:"262144"`

	PolicyConfigPath    string `env:"AGENT_POLICY_CONFIG"`
	SupportEventsPath   string `env:"AGENT_SUPPORT_EVENTS"`
	CharacterEventsPath string `env:"AGENT_CHARACTER_EVENTS"`
	ScenarioEventsPath  string `env:"AGENT_SCENARIO_EVENTS"`
	RacesPath           string `env:"AGENT_RACES"`
	ScriptsDir          string `env:"AGENT_SCRIPTS_DIR"`

	JournalMode        string `env:"JOURNAL_MODE" envDefault:"memory"`
	JournalSQLitePath  string `env:"JOURNAL_SQLITE_PATH"`
	JournalDSN         string `env:"JOURNAL_DATABASE_DSN"`
	JournalRecentLimit int    `env:"JOURNAL_RECENT_LIMIT" envDefault:"200"`

	AptitudeCache string        `env:"APTITUDE_CACHE" envDefault:"memory"`
	AptitudeTTL   time.Duration `env:"APTITUDE_TTL" envDefault:"72h"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"`

	OTELEndpoint string `env:"AGENT_OTEL_ENDPOINT"`
	OTELEnabled  bool   `env:"AGENT_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment and parses Config. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
