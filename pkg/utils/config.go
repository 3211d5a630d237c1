package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Booking  BookingConfig
	Sweep    SweepConfig
	Outbox   OutboxConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret string
}

// BookingConfig carries the policy knobs: fee tiers, the check-in
// grace window, the no-show ban threshold and scope, and the booking
// horizon.
type BookingConfig struct {
	GraceMinutes     int
	BanThreshold     int
	CountAllSlots    bool
	HorizonMonths    int
	LockDeposit      float64
	Slot2100Fee      float64
	Slot2200Fee      float64
	TokenCacheExpiry time.Duration
}

type SweepConfig struct {
	Interval  time.Duration
	BatchSize int
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "booking-events")
	viper.SetDefault("GRACE_MINUTES", 15)
	viper.SetDefault("NOSHOW_BAN_THRESHOLD", 3)
	viper.SetDefault("NOSHOW_COUNT_ALL_SLOTS", false)
	viper.SetDefault("BOOKING_HORIZON_MONTHS", 3)
	viper.SetDefault("TABLE_LOCK_DEPOSIT", 150.0)
	viper.SetDefault("SLOT_21_FEE", 500.0)
	viper.SetDefault("SLOT_22_FEE", 1000.0)
	viper.SetDefault("TOKEN_CACHE_EXPIRY_HOURS", 24)
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("SWEEP_BATCH_SIZE", 100)
	viper.SetDefault("OUTBOX_POLL_INTERVAL_MS", 500)
	viper.SetDefault("OUTBOX_BATCH_SIZE", 100)
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASS"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Booking: BookingConfig{
			GraceMinutes:     viper.GetInt("GRACE_MINUTES"),
			BanThreshold:     viper.GetInt("NOSHOW_BAN_THRESHOLD"),
			CountAllSlots:    viper.GetBool("NOSHOW_COUNT_ALL_SLOTS"),
			HorizonMonths:    viper.GetInt("BOOKING_HORIZON_MONTHS"),
			LockDeposit:      viper.GetFloat64("TABLE_LOCK_DEPOSIT"),
			Slot2100Fee:      viper.GetFloat64("SLOT_21_FEE"),
			Slot2200Fee:      viper.GetFloat64("SLOT_22_FEE"),
			TokenCacheExpiry: time.Duration(viper.GetInt("TOKEN_CACHE_EXPIRY_HOURS")) * time.Hour,
		},
		Sweep: SweepConfig{
			Interval:  time.Duration(viper.GetInt("SWEEP_INTERVAL_SECONDS")) * time.Second,
			BatchSize: viper.GetInt("SWEEP_BATCH_SIZE"),
		},
		Outbox: OutboxConfig{
			PollInterval: time.Duration(viper.GetInt("OUTBOX_POLL_INTERVAL_MS")) * time.Millisecond,
			BatchSize:    viper.GetInt("OUTBOX_BATCH_SIZE"),
			MaxAttempts:  viper.GetInt("OUTBOX_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}
