package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading controller.
// Routing and aggregation policy knobs live here so the decision layer never
// reads ambient state.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	// MaxGraderCount caps how many peer verdicts a peer aggregate reports.
	MaxGraderCount int
	// RequiredPeerGrades is how many successful peer attempts finish a
	// peer-routed submission.
	RequiredPeerGrades int
	// MinToUseML is the instructor-graded count needed before a location can
	// switch to automated grading.
	MinToUseML int
	// MinToUsePeer is the equivalent threshold for peer grading.
	MinToUsePeer int
	// BasicCheckMinLength is the minimum stripped answer length accepted by
	// the basic check.
	BasicCheckMinLength int

	ProgressCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADEFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GradeFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("grading.max_grader_count", 3)
	v.SetDefault("grading.required_peer_grades", 3)
	v.SetDefault("grading.min_to_use_ml", 20)
	v.SetDefault("grading.min_to_use_peer", 10)
	v.SetDefault("grading.basic_check_min_length", 10)
	v.SetDefault("progress.cache_ttl", "45s")

	ttlString := v.GetString("progress.cache_ttl")
	if ttlString == "" {
		ttlString = "45s"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		MaxGraderCount:      v.GetInt("grading.max_grader_count"),
		RequiredPeerGrades:  v.GetInt("grading.required_peer_grades"),
		MinToUseML:          v.GetInt("grading.min_to_use_ml"),
		MinToUsePeer:        v.GetInt("grading.min_to_use_peer"),
		BasicCheckMinLength: v.GetInt("grading.basic_check_min_length"),
		ProgressCacheTTL:    ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxGraderCount <= 0 {
		cfg.MaxGraderCount = 3
	}

	if cfg.RequiredPeerGrades <= 0 {
		cfg.RequiredPeerGrades = 3
	}

	if cfg.BasicCheckMinLength <= 0 {
		cfg.BasicCheckMinLength = 10
	}

	return cfg, nil
}
