package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FORRAJERIA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DocStoreFirestore = "firestore"
	DocStoreSQL       = "sql"
)

// Environment variable names referenced outside of struct tags.
const (
	EnvAppEnv          = "FORRAJERIA_APP_ENV"
	EnvPort            = "FORRAJERIA_APP_PORT"
	EnvDBDSN           = "FORRAJERIA_DB_DSN"
	EnvDBHost          = "FORRAJERIA_DB_HOST"
	EnvDBUser          = "FORRAJERIA_DB_USER"
	EnvDBName          = "FORRAJERIA_DB_NAME"
	EnvRedisURL        = "FORRAJERIA_REDIS_URL"
	EnvJWTSecret       = "FORRAJERIA_JWT_SECRET"
	EnvJWTIssuer       = "FORRAJERIA_JWT_ISSUER"
	EnvJWTExpMins      = "FORRAJERIA_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID    = "FORRAJERIA_GCP_PROJECT_ID"
	EnvDocStoreDriver  = "FORRAJERIA_DOCSTORE_DRIVER"
	EnvUseSQLite       = "FORRAJERIA_USE_SQLITE"
	EnvSQLitePath      = "FORRAJERIA_SQLITE_PATH"
	EnvPubSubOrders    = "FORRAJERIA_PUBSUB_ORDERS_TOPIC"
	EnvAdminAPIKey     = "FORRAJERIA_ADMIN_API_KEY"
	EnvPickupOpen      = "FORRAJERIA_PICKUP_OPEN"
	EnvPickupClose     = "FORRAJERIA_PICKUP_CLOSE"
	EnvPickupMaxDays   = "FORRAJERIA_PICKUP_MAX_DAYS_AHEAD"
	EnvStoreTimezone   = "FORRAJERIA_STORE_TIMEZONE"
	EnvRepeatValidate  = "FORRAJERIA_REPEAT_ORDER_VALIDATE_STOCK"
	EnvCartSyncEvery   = "FORRAJERIA_CART_SYNC_INTERVAL"
	EnvCommentsMaxRune = "FORRAJERIA_COMMENTS_MAX_LENGTH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	Firestore     FirestoreConfig
	PubSub        PubSubConfig
	Storefront    StorefrontConfig
	Admin         AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.DocStoreDriver == DocStoreSQL && !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.FeatureFlags.DocStoreDriver == DocStoreFirestore && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when the document store driver is %q", EnvGCPProjectID, DocStoreFirestore)
	}
	if err := cfg.Storefront.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FORRAJERIA_APP_ENV" required:"true"`
	Port         string   `envconfig:"FORRAJERIA_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"FORRAJERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FORRAJERIA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FORRAJERIA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"FORRAJERIA_DB_DSN"`
	SQLitePath string `envconfig:"FORRAJERIA_SQLITE_PATH" default:"forrajeria.db"`

	LegacyHost     string `envconfig:"FORRAJERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"FORRAJERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FORRAJERIA_DB_USER"`
	LegacyPassword string `envconfig:"FORRAJERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"FORRAJERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"FORRAJERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FORRAJERIA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FORRAJERIA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FORRAJERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FORRAJERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FORRAJERIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FORRAJERIA_REDIS_ADDR"`
	Password     string        `envconfig:"FORRAJERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"FORRAJERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FORRAJERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FORRAJERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FORRAJERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FORRAJERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FORRAJERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"FORRAJERIA_REDIS_NAMESPACE" default:"fj"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FORRAJERIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FORRAJERIA_JWT_ISSUER" default:"forrajeria"`
	ExpirationMinutes int    `envconfig:"FORRAJERIA_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// SessionTTL mirrors the access token lifetime so the session record never outlives the token.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FORRAJERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"FORRAJERIA_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FORRAJERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FORRAJERIA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"FORRAJERIA_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FORRAJERIA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	DocStoreDriver string `envconfig:"FORRAJERIA_DOCSTORE_DRIVER" default:"firestore"`
	UseSQLite      bool   `envconfig:"FORRAJERIA_USE_SQLITE" default:"false"`
	AutoMigrate    bool   `envconfig:"FORRAJERIA_AUTO_MIGRATE" default:"false"`
	CartPushSync   bool   `envconfig:"FORRAJERIA_CART_PUSH_SYNC" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FORRAJERIA_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"FORRAJERIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type FirestoreConfig struct {
	ProductsCollection  string `envconfig:"FORRAJERIA_FIRESTORE_PRODUCTS_COLLECTION" default:"productos"`
	CustomersCollection string `envconfig:"FORRAJERIA_FIRESTORE_CUSTOMERS_COLLECTION" default:"clientes-ecommerce"`
	OrdersCollection    string `envconfig:"FORRAJERIA_FIRESTORE_ORDERS_COLLECTION" default:"pedidos-ecommerce"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"FORRAJERIA_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

// StorefrontConfig carries the business policy of the shop.
type StorefrontConfig struct {
	Timezone              string        `envconfig:"FORRAJERIA_STORE_TIMEZONE" default:"America/Argentina/Buenos_Aires"`
	PickupOpen            string        `envconfig:"FORRAJERIA_PICKUP_OPEN" default:"08:00"`
	PickupClose           string        `envconfig:"FORRAJERIA_PICKUP_CLOSE" default:"18:00"`
	PickupMaxDaysAhead    int           `envconfig:"FORRAJERIA_PICKUP_MAX_DAYS_AHEAD" default:"30"`
	ClosedWeekday         string        `envconfig:"FORRAJERIA_CLOSED_WEEKDAY" default:"sunday"`
	CommentsMaxLength     int           `envconfig:"FORRAJERIA_COMMENTS_MAX_LENGTH" default:"500"`
	CartSyncInterval      time.Duration `envconfig:"FORRAJERIA_CART_SYNC_INTERVAL" default:"1s"`
	RepeatOrderStockLimit int           `envconfig:"FORRAJERIA_REPEAT_ORDER_STOCK_CEILING" default:"999"`
	RepeatOrderValidate   bool          `envconfig:"FORRAJERIA_REPEAT_ORDER_VALIDATE_STOCK" default:"false"`
}

// Location resolves the configured store time zone, falling back to UTC.
func (s StorefrontConfig) Location() *time.Location {
	if strings.TrimSpace(s.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Weekday parses ClosedWeekday; an empty value means the shop opens every day.
func (s StorefrontConfig) Weekday() (time.Weekday, bool) {
	value := strings.ToLower(strings.TrimSpace(s.ClosedWeekday))
	if value == "" || value == "none" {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == value {
			return d, true
		}
	}
	return 0, false
}

func (s StorefrontConfig) validate() error {
	open, err := time.Parse("15:04", s.PickupOpen)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvPickupOpen, s.PickupOpen, err)
	}
	closing, err := time.Parse("15:04", s.PickupClose)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvPickupClose, s.PickupClose, err)
	}
	if !closing.After(open) {
		return fmt.Errorf("%s must be after %s", EnvPickupClose, EnvPickupOpen)
	}
	if s.PickupMaxDaysAhead < 1 {
		return fmt.Errorf("%s must be at least 1", EnvPickupMaxDays)
	}
	if s.CommentsMaxLength < 0 {
		return fmt.Errorf("%s must not be negative", EnvCommentsMaxRune)
	}
	if _, ok := s.Weekday(); !ok {
		value := strings.ToLower(strings.TrimSpace(s.ClosedWeekday))
		if value != "" && value != "none" {
			return fmt.Errorf("invalid closed weekday %q", s.ClosedWeekday)
		}
	}
	return nil
}

type AdminConfig struct {
	APIKey string `envconfig:"FORRAJERIA_ADMIN_API_KEY"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
