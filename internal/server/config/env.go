package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded into the process environment before variables are read.
// Variables already set in the environment win over the file.
var envFile = ".env"

// parseEnv overlays environment variables onto config.
//
// Recognised variables:
//
//	HTTP_ADDR, API_V1_PREFIX, CORS_ORIGINS (comma separated)
//	DATABASE_URL
//	JWT_SECRET, JWT_EXPIRATION (seconds)
//	PAGE_SIZE_DEFAULT, PAGE_SIZE_MAX
//	UPSTREAM_TIMEOUT (Go duration)
//	GENERATOR_PROVIDER, RENDERER_PROVIDER, GEMINI_API_KEY, GEMINI_MODEL
//	ARTIFACT_STORAGE, S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT
//	LOG_LEVEL, LOG_FORMAT, LOG_BACKEND
//
// Malformed numeric or duration values panic.
func parseEnv(config *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("loading %s: %w", envFile, err))
	}

	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.APIPrefix, "API_V1_PREFIX")
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "JWT_SECRET")
	if v, ok := os.LookupEnv("JWT_EXPIRATION"); ok && v != "" {
		config.AccessTokenValidityDuration = time.Duration(mustAtoi("JWT_EXPIRATION", v)) * time.Second
	}
	if v, ok := os.LookupEnv("PAGE_SIZE_DEFAULT"); ok && v != "" {
		config.DefaultPageSize = mustAtoi("PAGE_SIZE_DEFAULT", v)
	}
	if v, ok := os.LookupEnv("PAGE_SIZE_MAX"); ok && v != "" {
		config.MaxPageSize = mustAtoi("PAGE_SIZE_MAX", v)
	}
	if v, ok := os.LookupEnv("UPSTREAM_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("UPSTREAM_TIMEOUT: %w", err))
		}
		config.UpstreamTimeout = d
	}
	envString(&config.GeneratorProvider, "GENERATOR_PROVIDER")
	envString(&config.RendererProvider, "RENDERER_PROVIDER")
	envString(&config.GeminiAPIKey, "GEMINI_API_KEY")
	envString(&config.GeminiModel, "GEMINI_MODEL")
	envString(&config.ArtifactStorage, "ARTIFACT_STORAGE")
	envString(&config.S3RootUser, "S3_ACCESS_KEY")
	envString(&config.S3RootPassword, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.LogFormat, "LOG_FORMAT")
	envString(&config.LogBackend, "LOG_BACKEND")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func mustAtoi(key, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	return n
}
