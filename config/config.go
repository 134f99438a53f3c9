package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const minMasterKeyLen = 32

type (
	APP struct {
		Name      string
		Host      string
		Port      string
		Env       string
		JWTSecret string
		JWTTTL    time.Duration
		// PublicURL is the frontend origin encoded into QR codes.
		PublicURL string
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		SSLMode  string
	}
	Crypto struct {
		MasterSecret string
		Workers      int
		ChunkSize    int
		Compress     bool
	}
	Storage struct {
		Dir         string
		MaxFileSize int64
		PolicyFile  string
	}
	Share struct {
		FileTTL       time.Duration
		SweepInterval time.Duration
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}

	Config struct {
		App     APP
		DB      DB
		Crypto  Crypto
		Storage Storage
		Share   Share
		MQ      MQ
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	app := APP{
		Name:      getEnv("SERVICE_NAME", "secureshare"),
		Host:      getEnv("SERVICE_HOST", ""),
		Port:      getEnv("SERVICE_PORT", "8080"),
		Env:       getEnv("SERVICE_ENV", ""),
		JWTSecret: getEnv("SERVICE_JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("SERVICE_JWT_TTL", time.Hour),
		PublicURL: strings.TrimRight(getEnv("SERVICE_PUBLIC_URL", "http://localhost:3000"), "/"),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
	crypto := Crypto{
		MasterSecret: getEnv("CRYPTO_MASTER_SECRET", ""),
		Workers:      getEnvInt("CRYPTO_WORKERS", runtime.NumCPU()),
		ChunkSize:    getEnvInt("CRYPTO_CHUNK_SIZE", 64<<10),
		Compress:     getEnvBool("CRYPTO_COMPRESS", false),
	}
	storage := Storage{
		Dir:         getEnv("STORAGE_DIR", "./uploads"),
		MaxFileSize: int64(getEnvInt("STORAGE_MAX_FILE_SIZE", 50_000_000)),
		PolicyFile:  getEnv("STORAGE_POLICY_FILE", "config/upload_policy.yaml"),
	}
	share := Share{
		FileTTL:       getEnvDuration("SHARE_FILE_TTL", 24*time.Hour),
		SweepInterval: getEnvDuration("SHARE_SWEEP_INTERVAL", time.Minute),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "secureshare.audit"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "secureshare.audit.log"),
	}

	return Config{
		App:     app,
		DB:      db,
		Crypto:  crypto,
		Storage: storage,
		Share:   share,
		MQ:      mq,
	}
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.App.Env) {
	case "release", "prod", "production":
		return true
	}
	return false
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.App.JWTSecret == "" {
		errs = append(errs, errors.New("SERVICE_JWT_SECRET is required"))
	}
	if _, err := c.Crypto.MasterKey(); err != nil {
		errs = append(errs, err)
	}
	if c.Crypto.Workers <= 0 {
		errs = append(errs, errors.New("CRYPTO_WORKERS must be positive"))
	}
	if c.Crypto.ChunkSize < 1024 || c.Crypto.ChunkSize > 16<<20 {
		errs = append(errs, errors.New("CRYPTO_CHUNK_SIZE must be between 1KiB and 16MiB"))
	}
	if c.Storage.Dir == "" {
		errs = append(errs, errors.New("STORAGE_DIR is required"))
	}
	if c.Storage.MaxFileSize <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_FILE_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// MasterKey decodes CRYPTO_MASTER_SECRET. Base64 (std or url) and hex are accepted.
func (c Crypto) MasterKey() ([]byte, error) {
	s := strings.TrimSpace(c.MasterSecret)
	if s == "" {
		return nil, errors.New("CRYPTO_MASTER_SECRET is required")
	}

	decoders := []func(string) ([]byte, error){
		hex.DecodeString,
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.RawURLEncoding.DecodeString,
	}
	for _, decode := range decoders {
		if b, err := decode(s); err == nil {
			if len(b) < minMasterKeyLen {
				return nil, fmt.Errorf("CRYPTO_MASTER_SECRET must decode to at least %d bytes, got %d", minMasterKeyLen, len(b))
			}
			return b, nil
		}
	}

	return nil, errors.New("CRYPTO_MASTER_SECRET must be hex or base64 encoded")
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
		c.DB.SSLMode,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
