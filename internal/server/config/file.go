package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. The same struct is
// decoded from JSON or YAML depending on the file extension. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
//
// Only fields present with a non-zero value overwrite the running Config.
type FileConfig struct {
	HTTPAddr        string         `json:"http_addr" yaml:"http_addr"`
	APIPrefix       string         `json:"api_prefix" yaml:"api_prefix"`
	CORSOrigins     []string       `json:"cors_origins" yaml:"cors_origins"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RevokedTokensPurgeInterval  timex.Duration `json:"revoked_tokens_purge_interval" yaml:"revoked_tokens_purge_interval"`

	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size"`
	MaxPageSize     int `json:"max_page_size" yaml:"max_page_size"`

	UpstreamTimeout   timex.Duration `json:"upstream_timeout" yaml:"upstream_timeout"`
	GeneratorProvider string         `json:"generator_provider" yaml:"generator_provider"`
	RendererProvider  string         `json:"renderer_provider" yaml:"renderer_provider"`
	GeminiAPIKey      string         `json:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel       string         `json:"gemini_model" yaml:"gemini_model"`

	ArtifactStorage string         `json:"artifact_storage" yaml:"artifact_storage"`
	S3RootUser      string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PresignExpiry timex.Duration `json:"s3_presign_expiry" yaml:"s3_presign_expiry"`

	LogLevel   string `json:"log_level" yaml:"log_level"`
	LogFormat  string `json:"log_format" yaml:"log_format"`
	LogBackend string `json:"log_backend" yaml:"log_backend"`
}

// parseFile overlays values from the file at path onto config.
// An empty path is a no-op. Read or decode failures panic: the process
// must not start with a half-applied config.
func parseFile(config *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.APIPrefix, c.APIPrefix)
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RevokedTokensPurgeInterval, c.RevokedTokensPurgeInterval)
	setInt(&config.DefaultPageSize, c.DefaultPageSize)
	setInt(&config.MaxPageSize, c.MaxPageSize)
	setDuration(&config.UpstreamTimeout, c.UpstreamTimeout)
	setString(&config.GeneratorProvider, c.GeneratorProvider)
	setString(&config.RendererProvider, c.RendererProvider)
	setString(&config.GeminiAPIKey, c.GeminiAPIKey)
	setString(&config.GeminiModel, c.GeminiModel)
	setString(&config.ArtifactStorage, c.ArtifactStorage)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.S3PresignExpiry, c.S3PresignExpiry)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogBackend, c.LogBackend)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
