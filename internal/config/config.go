package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Business-day parameters drive the slot catalog
// cadence; the production capacity limit itself lives in the store, not
// here, because operators edit it at runtime.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	OpenTime     string // first offerable pickup time of the day, "15:04" form
	CloseTime    string // last offerable pickup time of the day, "15:04" form
	SlotCadence  int    // minutes between consecutive cadence slots
	QueuePath    string // file path of the local durable order queue
	NumberWidth  int    // zero-padding width for displayed order numbers
	NearLimitPct int    // percentage of the limit at which a slot shows near-limit
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Optional variables
// fall back to sensible defaults for a single-shop deployment.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		OpenTime:     getenv("SHOP_OPEN_TIME", "09:00"),
		CloseTime:    getenv("SHOP_CLOSE_TIME", "19:00"),
		SlotCadence:  getenvInt("SLOT_CADENCE_MIN", 30),
		QueuePath:    getenv("OFFLINE_QUEUE_PATH", "data/pending-orders.db"),
		NumberWidth:  getenvInt("ORDER_NUMBER_WIDTH", 4),
		NearLimitPct: getenvInt("SLOT_NEAR_LIMIT_PCT", 80),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the value of an optional environment variable, or the
// provided default when it is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt is like getenv but converts the value to an integer, falling
// back to the default on a missing or unparsable value.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
