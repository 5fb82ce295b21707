package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAppPort          = "8080"
	defaultAppEnv           = "local"
	defaultMongoURI         = "mongodb://localhost:27017"
	defaultMongoDatabase    = "storefront"
	defaultMongoTimeout     = 10 * time.Second
	defaultRedisAddr        = "localhost:6379"
	defaultProductCacheTTL  = 0
	defaultCartWriteRetries = 3
	defaultRateLimit        = 200
	defaultMaxBodyBytes     = 4 << 20
	defaultShutdownTimeout  = 10 * time.Second
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json, then .env, then the process environment.
// Later sources win. Only the first call does any work.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_PORT":              defaultAppPort,
		"APP_ENV":               defaultAppEnv,
		"MONGO_URI":             defaultMongoURI,
		"MONGO_DATABASE":        defaultMongoDatabase,
		"REDIS_ADDR":            defaultRedisAddr,
		"REDIS_PASSWORD":        "",
		"CORS_ALLOWED_ORIGINS":  "*",
		"LOG_MONGO":             "false",
		"LOG_MONGO_COLLECTION":  "logs",
		"CART_WRITE_RETRIES":    strconv.Itoa(defaultCartWriteRetries),
		"RATE_LIMIT_PER_MINUTE": strconv.Itoa(defaultRateLimit),
		"TRUST_PROXY":           "false",
	}
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether APP_ENV names a production deployment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

// ── MongoDB ──────────────────────────────────────────────────────────────────

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

func MongoDatabase() string {
	_ = Load()
	return get("MONGO_DATABASE", defaultMongoDatabase)
}

func MongoTimeout() time.Duration {
	_ = Load()
	return getDuration("MONGO_TIMEOUT", defaultMongoTimeout)
}

// ── Redis ────────────────────────────────────────────────────────────────────

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ProductCacheTTL is how long resolved products stay in Redis. The cache is
// off unless this is set above zero; while on, resolved carts may show
// product records up to this old.
func ProductCacheTTL() time.Duration {
	_ = Load()
	return getDuration("PRODUCT_CACHE_TTL", defaultProductCacheTTL)
}

// ── Cart ─────────────────────────────────────────────────────────────────────

// CartWriteRetries is the number of attempts a cart mutation gets when its
// conditional write loses to a concurrent writer.
func CartWriteRetries() int {
	_ = Load()
	n := getInt("CART_WRITE_RETRIES", defaultCartWriteRetries)
	if n < 1 {
		return 1
	}
	return n
}

// ── HTTP ─────────────────────────────────────────────────────────────────────

func RateLimitPerMinute() int {
	_ = Load()
	return getInt("RATE_LIMIT_PER_MINUTE", defaultRateLimit)
}

// TrustProxy makes the rate limiter key clients by X-Forwarded-For. Only
// enable it behind a proxy that overwrites that header.
func TrustProxy() bool {
	_ = Load()
	b, _ := strconv.ParseBool(get("TRUST_PROXY", "false"))
	return b
}

func CORSAllowedOrigins() []string {
	_ = Load()
	var out []string
	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxBodyBytes
	}
	return n
}

func ShutdownTimeout() time.Duration {
	_ = Load()
	return getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
}

// ── Logging ──────────────────────────────────────────────────────────────────

func LogToMongo() bool {
	_ = Load()
	b, _ := strconv.ParseBool(get("LOG_MONGO", "false"))
	return b
}

func LogMongoCollection() string {
	_ = Load()
	return get("LOG_MONGO_COLLECTION", "logs")
}

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeEnviron overlays variables from the process environment for every
// key the service knows about.
func mergeEnviron(out map[string]string) {
	for _, key := range knownKeys {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = strings.TrimSpace(v)
		}
	}
}

var knownKeys = []string{
	"APP_PORT", "APP_ENV",
	"MONGO_URI", "MONGO_DATABASE", "MONGO_TIMEOUT",
	"REDIS_ADDR", "REDIS_PASSWORD", "PRODUCT_CACHE_TTL",
	"CART_WRITE_RETRIES",
	"RATE_LIMIT_PER_MINUTE", "TRUST_PROXY", "CORS_ALLOWED_ORIGINS", "MAX_BODY_BYTES", "SHUTDOWN_TIMEOUT",
	"LOG_MONGO", "LOG_MONGO_COLLECTION",
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// getDuration accepts Go duration strings ("30s") or bare seconds ("30").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := get(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a single key. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
