package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration parameters, loaded from environment variables.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4244"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// OpenAI completion + image endpoints
	OpenAIBaseURL    string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel      string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	OpenAIImageModel string `envconfig:"OPENAI_IMAGE_MODEL" default:"dall-e-3"`
	OpenAIImageSize  string `envconfig:"OPENAI_IMAGE_SIZE" default:"1024x1024"`
	ImagesEnabled    bool   `envconfig:"IMAGES_ENABLED" default:"true"`

	// WordPress REST API target (Basic auth with an application password)
	WordPressBaseURL     string `envconfig:"WORDPRESS_BASE_URL" required:"true"`
	WordPressUser        string `envconfig:"WORDPRESS_USER" required:"true"`
	WordPressAppPassword string `envconfig:"WORDPRESS_APP_PASSWORD" required:"true"`

	// S3-compatible storage for generated hero images
	MediaS3Key    string `envconfig:"MEDIA_S3_KEY" required:"true"`
	MediaS3Secret string `envconfig:"MEDIA_S3_SECRET" required:"true"`
	MediaS3URL    string `envconfig:"MEDIA_S3_URL" required:"true"`
	MediaS3Region string `envconfig:"MEDIA_S3_REGION" required:"true"`
	MediaS3Bucket string `envconfig:"MEDIA_S3_BUCKET" required:"true"`

	DigestCronSchedule    string `envconfig:"DIGEST_CRON_SCHEDULE" default:"0 6 * * *"`
	ReconcileCronSchedule string `envconfig:"RECONCILE_CRON_SCHEDULE" default:"*/30 * * * *"`
}

// DSN returns the Data Source Name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
