package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service. It is loaded once and
// threaded explicitly into each component's constructor; there is no
// process-global state.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
	Extract  ExtractConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPPort     int
	Environment  string
	LogLevel     string
	ShutdownTime time.Duration
}

// DatabaseConfig holds database configuration. Driver selects between
// sqlite (DSN is a file path) and postgres (DSN is a connection string).
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// StorageConfig holds local media storage and object-store configuration.
type StorageConfig struct {
	// MediaRoot is the local root for uploaded files and pipeline working
	// directories.
	MediaRoot string

	// UploadEnabled toggles publishing to the object store. When false the
	// pipeline runs in local-only mode: no network calls, no local cleanup.
	UploadEnabled bool

	S3 S3Config
}

// S3Config holds S3-compatible object store configuration. Endpoint is set
// for non-AWS stores such as DigitalOcean Spaces.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// PipelineConfig holds HLS pipeline configuration.
type PipelineConfig struct {
	// MediaHost prefixes relative source paths when building the absolute
	// source URL for a job.
	MediaHost string

	// PlaylistBase is the base URL of the playlist-serving host.
	PlaylistBase string

	// EncodeParallelism bounds how many rendition encodes run at once.
	EncodeParallelism int

	FetchTimeout  time.Duration
	EncodeTimeout time.Duration
	QueueWorkers  int
	QueueSize     int
}

// ExtractConfig holds thumbnail and perceptual-hash extraction configuration.
type ExtractConfig struct {
	MaxWidth    int
	MaxHeight   int
	SeekSeconds float64
	FFmpegPath  string
	FFprobePath string
}

// Load loads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:     getEnvAsInt("HTTP_PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ShutdownTime: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "mediacenter.db"),
		},
		Storage: StorageConfig{
			MediaRoot:     getEnv("MEDIA_ROOT", "/var/mediacenter/media"),
			UploadEnabled: getEnvAsBool("UPLOAD_ENABLED", true),
			S3: S3Config{
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Bucket:          getEnv("S3_BUCKET", "mediacenter"),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			},
		},
		Pipeline: PipelineConfig{
			MediaHost:         getEnv("MEDIA_HOST", "http://localhost:8080"),
			PlaylistBase:      getEnv("HLS_PLAYLIST_SERVER", "http://localhost:8080"),
			EncodeParallelism: getEnvAsInt("ENCODE_PARALLELISM", 2),
			FetchTimeout:      getEnvAsDuration("FETCH_TIMEOUT", 10*time.Minute),
			EncodeTimeout:     getEnvAsDuration("ENCODE_TIMEOUT", 30*time.Minute),
			QueueWorkers:      getEnvAsInt("PIPELINE_WORKERS", 1),
			QueueSize:         getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
		},
		Extract: ExtractConfig{
			MaxWidth:    getEnvAsInt("THUMBNAIL_MAX_WIDTH", 640),
			MaxHeight:   getEnvAsInt("THUMBNAIL_MAX_HEIGHT", 640),
			SeekSeconds: getEnvAsFloat("THUMBNAIL_SEEK_SECONDS", 1),
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}
