package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig
	Supabase SupabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Storage  StorageConfig
	Session  SessionConfig
	Layout   LayoutConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

// Enabled reports whether the template should be fetched from Supabase Storage.
func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.BUCKET != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL string
}

type StorageConfig struct {
	MaxFileSize    int64
	TemplateObject string
	TemplatePath   string
	CacheDuration  time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// LayoutConfig holds the fixed geometry of the crop viewport and the flyer.
type LayoutConfig struct {
	Viewport ViewportLayout `yaml:"viewport"`
	Flyer    FlyerLayout    `yaml:"flyer"`
}

type ViewportLayout struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	CropSize          int     `yaml:"crop_size"`
	HandleSize        int     `yaml:"handle_size"`
	MinScale          float64 `yaml:"min_scale"`
	MaxScale          float64 `yaml:"max_scale"`
	ResizeSensitivity float64 `yaml:"resize_sensitivity"`
}

type FlyerLayout struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	CircleX      int    `yaml:"circle_x"`
	CircleY      int    `yaml:"circle_y"`
	CircleRadius int    `yaml:"circle_radius"`
	FileName     string `yaml:"file_name"`
	Title        string `yaml:"title"`
	Caption      string `yaml:"caption"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	layout, err := LoadLayout(getEnv("LAYOUT_FILE", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Storage: StorageConfig{
			MaxFileSize:    getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MB
			TemplateObject: getEnv("TEMPLATE_OBJECT", "images/back.png"),
			TemplatePath:   getEnv("TEMPLATE_PATH", "./public/images/back.png"),
			CacheDuration:  getDuration("CACHE_DURATION", 24*time.Hour),
		},
		Session: SessionConfig{
			TTL:           getDuration("SESSION_TTL", 30*time.Minute),
			SweepInterval: getDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		Layout: layout,
	}

	return cfg, nil
}

// DefaultLayout returns the geometry the flyer artwork was authored for.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		Viewport: ViewportLayout{
			Width:             600,
			Height:            400,
			CropSize:          300,
			HandleSize:        20,
			MinScale:          0.5,
			MaxScale:          3.0,
			ResizeSensitivity: 0.01,
		},
		Flyer: FlyerLayout{
			Width:        1080,
			Height:       1080,
			CircleX:      540,
			CircleY:      415,
			CircleRadius: 240,
			FileName:     "CCIC-Camp-Meeting-2025-Flyer.png",
			Title:        "CCIC Camp Meeting 2025",
			Caption:      "I will be attending",
		},
	}
}

// LoadLayout overlays the YAML file at path on DefaultLayout. An empty path
// returns the defaults.
func LoadLayout(path string) (LayoutConfig, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("failed to read layout file: %w", err)
	}

	if err := yaml.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("failed to parse layout file: %w", err)
	}

	return layout, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
