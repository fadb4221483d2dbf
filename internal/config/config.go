package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath      string `envconfig:"DB_PATH" default:"./data/agro.db"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`   // debug|info|warn|error
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"` // json|console
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`   // healthz + payment webhook

	DispatchInterval time.Duration `envconfig:"DISPATCH_INTERVAL" default:"60s"`
	SweepInterval    time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
	OutboxSize       int           `envconfig:"OUTBOX_SIZE" default:"256"`
	Workers          int           `envconfig:"WORKERS" default:"8"` // concurrent update handlers

	LimitPhotos    int `envconfig:"LIMIT_PHOTOS" default:"2"`
	LimitReminders int `envconfig:"LIMIT_REMINDERS" default:"1"`
	LimitQuestions int `envconfig:"LIMIT_QUESTIONS" default:"5"`

	YooKassaShopID    string `envconfig:"YOOKASSA_SHOP_ID"`
	YooKassaSecretKey string `envconfig:"YOOKASSA_SECRET_KEY"`
	PaymentReturnURL  string `envconfig:"PAYMENT_RETURN_URL"`

	YandexAPIKey   string `envconfig:"YANDEX_API_KEY"`
	YandexFolderID string `envconfig:"YANDEX_FOLDER_ID"`
	PlantNetAPIKey string `envconfig:"PLANTNET_API_KEY"`
	WeatherAPIKey  string `envconfig:"WEATHER_API_KEY"`
}

// PaymentsEnabled reports whether YooKassa credentials are set.
func (c Config) PaymentsEnabled() bool {
	return c.YooKassaShopID != "" && c.YooKassaSecretKey != ""
}

// Load reads optional env files (".env" when none are given), then
// environment variables into Config. Variables already set in the
// environment win over the files.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
