package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database, disabled when empty
	DatabaseURL    string
	MigrateOnStart bool

	// Redis, disabled when empty
	RedisURL                string
	StateSnapshotTTLMinutes int

	// Server
	Port        string
	FrontendURL string

	// Security
	JWTSecret                 string
	ControllerTokenTTLMinutes int

	// Simulation
	TickRateHz         int
	PhysicsMaxSubSteps int
	RestSpeedThreshold float64

	// Idle tables, disabled when TableIdleMinutes <= 0
	TableIdleMinutes      int
	IdleWorkerPollSeconds int

	// Strike detection
	TipRadius       float64
	BallRadius      float64
	ContactEpsilon  float64
	MinStrikeSpeed  float64
	ImpulseGain     float64
	HapticIntensity float64
	HapticDuration  time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",

		// Redis
		RedisURL:                os.Getenv("REDIS_URL"),
		StateSnapshotTTLMinutes: getEnvInt("STATE_SNAPSHOT_TTL_MINUTES", 60),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Security
		JWTSecret:                 getEnv("JWT_SECRET", "change-me-in-production"),
		ControllerTokenTTLMinutes: getEnvInt("CONTROLLER_TOKEN_TTL_MINUTES", 720),

		// Simulation
		TickRateHz:         getEnvInt("TICK_RATE_HZ", 60),
		PhysicsMaxSubSteps: getEnvInt("PHYSICS_MAX_SUBSTEPS", 3),
		RestSpeedThreshold: getEnvFloat("REST_SPEED_THRESHOLD", 0.01),

		// Idle tables
		TableIdleMinutes:      getEnvInt("TABLE_IDLE_MINUTES", 30),
		IdleWorkerPollSeconds: getEnvInt("IDLE_WORKER_POLL_SECONDS", 60),

		// Strike detection
		TipRadius:       getEnvFloat("TIP_RADIUS", 0.006),
		BallRadius:      getEnvFloat("BALL_RADIUS", 0.03075),
		ContactEpsilon:  getEnvFloat("CONTACT_EPSILON", 0.00125),
		MinStrikeSpeed:  getEnvFloat("MIN_STRIKE_SPEED", 0.1),
		ImpulseGain:     getEnvFloat("IMPULSE_GAIN", 5),
		HapticIntensity: getEnvFloat("HAPTIC_INTENSITY", 1.0),
		HapticDuration:  time.Duration(getEnvInt("HAPTIC_DURATION_MS", 100)) * time.Millisecond,
	}
}

// TickInterval is the wall-clock period of the table loop.
func (c *Config) TickInterval() time.Duration {
	hz := c.TickRateHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
