package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"quizarena/game"
)

const EnvPrefix = "QUIZARENA"

type Config struct {
	Port        int
	BindAddress string
	CORSOrigin  string
	LogLevel    string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	Seed       bool

	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	JWTSecret  string
	TokenTTL   time.Duration
	AdminToken string

	MaxPlayers       int
	MinPlayers       int
	QuestionCount    int
	QuestionDuration time.Duration
	StartDelay       time.Duration
	AdvanceDelay     time.Duration
	HostLeave        string
	IdleTimeout      time.Duration
	ReapInterval     time.Duration

	EnableChat       bool
	EnableStats      bool
	EnableSpectators bool

	RateWindow       time.Duration
	RateMax          int
	ChatInterval     time.Duration
	AnswersPerSecond int
}

// BindFlags registers every setting on fs with its default.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: QUIZARENA_PORT)")
	fs.StringVarP(&cfg.BindAddress, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZARENA_BIND)")
	fs.StringVar(&cfg.CORSOrigin, "cors-origin", "*", "allowed CORS origin (env: QUIZARENA_CORS_ORIGIN)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: QUIZARENA_LOG_LEVEL)")

	fs.StringVar(&cfg.DBDriver, "db-driver", "sqlite", "postgres or sqlite (env: QUIZARENA_DB_DRIVER)")
	fs.StringVar(&cfg.DBPath, "db-path", "quizarena.db", "sqlite database file (env: QUIZARENA_DB_PATH)")
	fs.StringVar(&cfg.DBHost, "db-host", "localhost", "postgres host (env: QUIZARENA_DB_HOST)")
	fs.StringVar(&cfg.DBPort, "db-port", "5432", "postgres port (env: QUIZARENA_DB_PORT)")
	fs.StringVar(&cfg.DBUser, "db-user", "quizarena", "postgres user (env: QUIZARENA_DB_USER)")
	fs.StringVar(&cfg.DBPassword, "db-password", "quizarena", "postgres password (env: QUIZARENA_DB_PASSWORD)")
	fs.StringVar(&cfg.DBName, "db-name", "quizarena", "postgres database (env: QUIZARENA_DB_NAME)")
	fs.BoolVar(&cfg.Seed, "seed", true, "seed the question bank when it is empty (env: QUIZARENA_SEED)")

	fs.BoolVar(&cfg.RedisEnabled, "redis", false, "store game snapshots in redis (env: QUIZARENA_REDIS)")
	fs.StringVar(&cfg.RedisHost, "redis-host", "localhost", "redis host (env: QUIZARENA_REDIS_HOST)")
	fs.StringVar(&cfg.RedisPort, "redis-port", "6379", "redis port (env: QUIZARENA_REDIS_PORT)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", "", "redis password (env: QUIZARENA_REDIS_PASSWORD)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number (env: QUIZARENA_REDIS_DB)")
	fs.DurationVar(&cfg.SnapshotTTL, "snapshot-ttl", 2*time.Hour, "lifetime of stored game snapshots (env: QUIZARENA_SNAPSHOT_TTL)")

	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "secret used to sign reconnect tokens (env: QUIZARENA_JWT_SECRET)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 2*time.Hour, "lifetime of reconnect tokens (env: QUIZARENA_TOKEN_TTL)")
	fs.StringVar(&cfg.AdminToken, "admin-token", "", "bearer token for question bank edits; empty disables them (env: QUIZARENA_ADMIN_TOKEN)")

	fs.IntVar(&cfg.MaxPlayers, "max-players", game.DefaultMaxPlayers, "default players per game (env: QUIZARENA_MAX_PLAYERS)")
	fs.IntVar(&cfg.MinPlayers, "min-players", game.DefaultMinPlayers, "players required to start (env: QUIZARENA_MIN_PLAYERS)")
	fs.IntVar(&cfg.QuestionCount, "question-count", game.DefaultQuestionCount, "default questions per game (env: QUIZARENA_QUESTION_COUNT)")
	fs.DurationVar(&cfg.QuestionDuration, "question-duration", game.DefaultQuestionDuration, "default time per question (env: QUIZARENA_QUESTION_DURATION)")
	fs.DurationVar(&cfg.StartDelay, "start-delay", 2*time.Second, "pause before the first question (env: QUIZARENA_START_DELAY)")
	fs.DurationVar(&cfg.AdvanceDelay, "advance-delay", 3*time.Second, "pause after everyone answered (env: QUIZARENA_ADVANCE_DELAY)")
	fs.StringVar(&cfg.HostLeave, "host-leave", "keep", "keep or end a running game when its host leaves (env: QUIZARENA_HOST_LEAVE)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 30*time.Minute, "time before idle games are removed (env: QUIZARENA_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.ReapInterval, "reap-interval", time.Minute, "how often idle games are checked (env: QUIZARENA_REAP_INTERVAL)")

	fs.BoolVar(&cfg.EnableChat, "chat", true, "enable in-game chat (env: QUIZARENA_CHAT)")
	fs.BoolVar(&cfg.EnableStats, "stats", true, "record player statistics (env: QUIZARENA_STATS)")
	fs.BoolVar(&cfg.EnableSpectators, "spectators", true, "allow spectators (env: QUIZARENA_SPECTATORS)")

	fs.DurationVar(&cfg.RateWindow, "rate-window", time.Minute, "window for the per-connection request limit (env: QUIZARENA_RATE_WINDOW)")
	fs.IntVar(&cfg.RateMax, "rate-max", 100, "requests allowed per window (env: QUIZARENA_RATE_MAX)")
	fs.DurationVar(&cfg.ChatInterval, "chat-interval", time.Second, "minimum gap between chat messages (env: QUIZARENA_CHAT_INTERVAL)")
	fs.IntVar(&cfg.AnswersPerSecond, "answers-per-second", 5, "answer submissions allowed per second (env: QUIZARENA_ANSWERS_PER_SECOND)")
}

// Load resolves unset flags from a .env file, the environment and an optional
// YAML config file, in that order of precedence after explicit flags.
func Load(fs *pflag.FlagSet, configFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.DBDriver)
	}
	if c.MinPlayers < 1 || c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("min players must be between 1 and max players (%d)", c.MaxPlayers)
	}
	if c.QuestionCount < 1 {
		return errors.New("question count must be positive")
	}
	if c.QuestionDuration < time.Second {
		return errors.New("question duration must be at least one second")
	}
	if _, err := game.ParseHostLeavePolicy(c.HostLeave); err != nil {
		return err
	}
	if c.RateMax < 1 || c.AnswersPerSecond < 1 {
		return errors.New("rate limits must be positive")
	}
	return nil
}

// GameDefaults returns the room settings used when a creator leaves fields unset.
func (c *Config) GameDefaults() game.Settings {
	return game.Settings{
		MaxPlayers:       c.MaxPlayers,
		MinPlayers:       c.MinPlayers,
		QuestionCount:    c.QuestionCount,
		QuestionDuration: c.QuestionDuration,
	}
}

// HostLeavePolicy parses HostLeave. Validate has already rejected bad values.
func (c *Config) HostLeavePolicy() game.HostLeavePolicy {
	p, _ := game.ParseHostLeavePolicy(c.HostLeave)
	return p
}
