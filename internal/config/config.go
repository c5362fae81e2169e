package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Photos    PhotosConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// PhotosConfig points at the platform's photo API, which owns events,
// uploads and moderation.
type PhotosConfig struct {
	BaseURL string
	APIKey  string
}

type PipelineConfig struct {
	FFmpegPath   string
	WorkDir      string        // parent of per-job workspaces
	ReelsDir     string        // durable, publicly served artifact directory
	ReelsPublic  string        // public URL prefix for artifacts
	Concurrency  int           // worker pool size
	JobTimeout   time.Duration // whole-job deadline, kills the encoder
	JobRetention time.Duration // how long terminal job records stay pollable
}

type RateLimitConfig struct {
	SubmitPerHour int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("photos.base_url", "http://localhost:8080")
	viper.SetDefault("photos.api_key", "")
	viper.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	viper.SetDefault("pipeline.work_dir", "/tmp/eventlens-reels")
	viper.SetDefault("pipeline.reels_dir", "./public/reels")
	viper.SetDefault("pipeline.reels_public", "/reels")
	viper.SetDefault("pipeline.concurrency", 2)
	viper.SetDefault("pipeline.job_timeout", "15m")
	viper.SetDefault("pipeline.job_retention", "24h")
	viper.SetDefault("ratelimit.submit_per_hour", 10)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		Photos: PhotosConfig{
			BaseURL: viper.GetString("photos.base_url"),
			APIKey:  viper.GetString("photos.api_key"),
		},
		Pipeline: PipelineConfig{
			FFmpegPath:   viper.GetString("pipeline.ffmpeg_path"),
			WorkDir:      viper.GetString("pipeline.work_dir"),
			ReelsDir:     viper.GetString("pipeline.reels_dir"),
			ReelsPublic:  viper.GetString("pipeline.reels_public"),
			Concurrency:  viper.GetInt("pipeline.concurrency"),
			JobTimeout:   viper.GetDuration("pipeline.job_timeout"),
			JobRetention: viper.GetDuration("pipeline.job_retention"),
		},
		RateLimit: RateLimitConfig{
			SubmitPerHour: viper.GetInt("ratelimit.submit_per_hour"),
		},
	}

	return cfg, nil
}
