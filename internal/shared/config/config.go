package config

import (
	"fmt"
	"math"
	"prospero-server/internal/shared/utils"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Frontend   FrontendConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Simulation SimulationConfig
	NameGen    NameGenConfig
	Corpus     CorpusConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

// SimulationConfig holds the parameters that drive world generation.
// MaxRequestSystems caps number_of_systems on regeneration requests.
type SimulationConfig struct {
	MapSeed           uint32
	NumberOfSystems   uint64
	SystemSpread      float64
	StarsEnabled      bool
	MaxRequestSystems uint64
}

type NameGenConfig struct {
	Order     int
	MaxLength int
	MaxTries  int
}

// CorpusConfig locates the name training corpus. With neither Path nor URL
// set the embedded default corpus is used.
type CorpusConfig struct {
	Path         string
	URL          string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads the configuration from the process environment without
// touching GlobalConfig.
func Load() (*Config, error) {
	simulation, err := loadSimulationConfig()
	if err != nil {
		return nil, err
	}

	nameGen, err := loadNameGenConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server:     loadServerConfig(),
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Auth:       loadAuthConfig(),
		Frontend:   loadFrontendConfig(),
		Logging:    loadLoggingConfig(),
		RateLimit:  loadRateLimitConfig(),
		Simulation: simulation,
		NameGen:    nameGen,
		Corpus:     loadCorpusConfig(),
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	readTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_READ_TIMEOUT_SECONDS", "15"))
	writeTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_WRITE_TIMEOUT_SECONDS", "60"))
	idleTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_IDLE_TIMEOUT_SECONDS", "60"))

	return ServerConfig{
		Port:         utils.GetEnv("SERVER_PORT", "8080"),
		Environment:  utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
		IdleTimeout:  time.Duration(idleTimeout) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	maxOpenConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_IDLE_CONNS", "5"))
	connMaxLifetime, _ := strconv.Atoi(utils.GetEnv("DB_CONN_MAX_LIFETIME_MINUTES", "5"))

	return DatabaseConfig{
		Enabled:         utils.GetEnv("DB_ENABLED", "false") == "true",
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "prospero"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadRedisConfig() RedisConfig {
	db, _ := strconv.Atoi(utils.GetEnv("REDIS_DB", "0"))
	ttl, _ := strconv.Atoi(utils.GetEnv("REDIS_SNAPSHOT_TTL_MINUTES", "60"))

	return RedisConfig{
		Enabled:  utils.GetEnv("REDIS_ENABLED", "false") == "true",
		URL:      utils.GetEnv("REDIS_URL", ""),
		Host:     utils.GetEnv("REDIS_HOST", "localhost"),
		Port:     utils.GetEnv("REDIS_PORT", "6379"),
		Password: utils.GetEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Minute,
	}
}

func loadAuthConfig() AuthConfig {
	tokenExpiration, _ := strconv.Atoi(utils.GetEnv("JWT_EXPIRATION_HOURS", "24"))

	return AuthConfig{
		JWTSecret:       utils.GetEnv("JWT_SECRET", ""),
		TokenExpiration: time.Duration(tokenExpiration) * time.Hour,
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	format := utils.GetEnv("LOG_FORMAT", "text")

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		Format:     format,
		JSONFormat: environment == "production" || format == "json",
	}
}

func loadRateLimitConfig() RateLimitConfig {
	requestsPerSecond, _ := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"), 64)
	burstSize, _ := strconv.Atoi(utils.GetEnv("RATE_LIMIT_BURST_SIZE", "20"))

	return RateLimitConfig{
		Enabled:           utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burstSize,
		TrustProxy:        utils.GetEnv("RATE_LIMIT_TRUST_PROXY", "false") == "true",
	}
}

// loadSimulationConfig parses strictly: a malformed generation parameter
// must stop the process instead of silently generating a different world.
func loadSimulationConfig() (SimulationConfig, error) {
	seed, err := strconv.ParseUint(utils.GetEnv("MAP_SEED", "0"), 10, 32)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("MAP_SEED must be an unsigned 32-bit integer: %w", err)
	}

	count, err := strconv.ParseUint(utils.GetEnv("NUMBER_OF_SYSTEMS", "256"), 10, 64)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("NUMBER_OF_SYSTEMS must be an unsigned 64-bit integer: %w", err)
	}

	spread, err := strconv.ParseFloat(utils.GetEnv("SYSTEM_SPREAD", "1000"), 64)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("SYSTEM_SPREAD must be a number: %w", err)
	}

	stars, err := strconv.ParseBool(utils.GetEnv("GENERATION_STARS_ENABLED", "true"))
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("GENERATION_STARS_ENABLED must be a boolean: %w", err)
	}

	maxRequest, err := strconv.ParseUint(utils.GetEnv("GENERATION_MAX_REQUEST_SYSTEMS", "100000"), 10, 64)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("GENERATION_MAX_REQUEST_SYSTEMS must be an unsigned 64-bit integer: %w", err)
	}

	return SimulationConfig{
		MapSeed:           uint32(seed),
		NumberOfSystems:   count,
		SystemSpread:      spread,
		StarsEnabled:      stars,
		MaxRequestSystems: maxRequest,
	}, nil
}

func loadNameGenConfig() (NameGenConfig, error) {
	values := map[string]int{}
	for key, fallback := range map[string]string{
		"NAMEGEN_ORDER":      "2",
		"NAMEGEN_MAX_LENGTH": "24",
		"NAMEGEN_MAX_TRIES":  "1000",
	} {
		v, err := strconv.Atoi(utils.GetEnv(key, fallback))
		if err != nil {
			return NameGenConfig{}, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		values[key] = v
	}

	return NameGenConfig{
		Order:     values["NAMEGEN_ORDER"],
		MaxLength: values["NAMEGEN_MAX_LENGTH"],
		MaxTries:  values["NAMEGEN_MAX_TRIES"],
	}, nil
}

func loadCorpusConfig() CorpusConfig {
	timeout, _ := strconv.Atoi(utils.GetEnv("CORPUS_TIMEOUT_SECONDS", "10"))

	return CorpusConfig{
		Path:         utils.GetEnv("CORPUS_PATH", ""),
		URL:          utils.GetEnv("CORPUS_URL", ""),
		TokenURL:     utils.GetEnv("CORPUS_TOKEN_URL", ""),
		ClientID:     utils.GetEnv("CORPUS_CLIENT_ID", ""),
		ClientSecret: utils.GetEnv("CORPUS_CLIENT_SECRET", ""),
		Timeout:      time.Duration(timeout) * time.Second,
	}
}

func (c *Config) validate() error {
	if math.IsNaN(c.Simulation.SystemSpread) || math.IsInf(c.Simulation.SystemSpread, 0) {
		return fmt.Errorf("SYSTEM_SPREAD must be finite")
	}

	if c.Simulation.SystemSpread < 0 {
		return fmt.Errorf("SYSTEM_SPREAD must not be negative")
	}

	if c.NameGen.Order < 1 {
		return fmt.Errorf("NAMEGEN_ORDER must be at least 1")
	}

	if c.NameGen.MaxLength < 1 {
		return fmt.Errorf("NAMEGEN_MAX_LENGTH must be at least 1")
	}

	if c.NameGen.MaxTries < 1 {
		return fmt.Errorf("NAMEGEN_MAX_TRIES must be at least 1")
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required when DB_ENABLED is set")
	}

	if c.Redis.TTL <= 0 {
		return fmt.Errorf("REDIS_SNAPSHOT_TTL_MINUTES must be a positive integer")
	}

	if c.Corpus.Timeout <= 0 {
		return fmt.Errorf("CORPUS_TIMEOUT_SECONDS must be a positive integer")
	}

	if c.Corpus.TokenURL != "" && c.Corpus.URL == "" {
		return fmt.Errorf("CORPUS_TOKEN_URL requires CORPUS_URL")
	}

	return nil
}

// AdminEnabled reports whether the regeneration endpoint can verify tokens.
func (c *Config) AdminEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
