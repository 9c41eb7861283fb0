// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars.
// - Koanf tags mirror the flat env key names under the PINOT_ prefix.
package config

// Store backend names accepted by StoreBackend.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the document store: memory or mongo.
	StoreBackend string `koanf:"store_backend"`

	// MongoURI and MongoDatabase configure the mongo backend.
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`

	// CorrectPoints is awarded per assignment matching the answer key.
	CorrectPoints int `koanf:"correct_points"`

	// FastBonusPoints / SlowBonusPoints reward quick assignments.
	FastBonusPoints int `koanf:"fast_bonus_points"`
	SlowBonusPoints int `koanf:"slow_bonus_points"`

	// FastBonusMinutes / SlowBonusMinutes bound the bonus windows,
	// measured from timer start to each label's own assignment.
	FastBonusMinutes int `koanf:"fast_bonus_minutes"`
	SlowBonusMinutes int `koanf:"slow_bonus_minutes"`

	// TimerTickMS sets the countdown re-evaluation interval.
	TimerTickMS int `koanf:"timer_tick_ms"`

	// MaxStandingsLimit caps GET /standings responses.
	MaxStandingsLimit int `koanf:"max_standings_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		StoreBackend:      BackendMemory,
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "pinot",
		CorrectPoints:     100,
		FastBonusPoints:   25,
		SlowBonusPoints:   10,
		FastBonusMinutes:  15,
		SlowBonusMinutes:  25,
		TimerTickMS:       1000,
		MaxStandingsLimit: 200,
	}
}
