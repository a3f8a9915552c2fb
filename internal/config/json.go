package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/timex"
	"gopkg.in/yaml.v2"
)

// JsonConfig is the on-disk shape of the configuration file, JSON or YAML
// with the same keys. Durations accept "30s" style strings or integer
// nanoseconds.
type JsonConfig struct {
	DatabaseDSN    string         `json:"database_dsn" yaml:"database_dsn"`
	ObjectStore    string         `json:"object_store" yaml:"object_store"`
	FileStoreRoot  string         `json:"file_store_root" yaml:"file_store_root"`
	S3RootUser     string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Timeout      timex.Duration `json:"s3_timeout" yaml:"s3_timeout"`
	TokenSecret    string         `json:"token_secret" yaml:"token_secret"`
	AccessToken    string         `json:"access_token" yaml:"access_token"`
	PrincipalID    string         `json:"principal_id" yaml:"principal_id"`
	PrincipalEmail string         `json:"principal_email" yaml:"principal_email"`
	LegacySalt     string         `json:"legacy_salt" yaml:"legacy_salt"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
}

// loadFile overlays the keys present in the file at path onto config.
// Fields missing from the file keep their current value. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON.
func loadFile(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(file, c)
	default:
		err = json.Unmarshal(file, c)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.ObjectStore, c.ObjectStore)
	setString(&config.FileStoreRoot, c.FileStoreRoot)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3Timeout.Duration != 0 {
		config.S3Timeout = c.S3Timeout.Duration
	}
	setString(&config.TokenSecret, c.TokenSecret)
	setString(&config.AccessToken, c.AccessToken)
	setString(&config.PrincipalID, c.PrincipalID)
	setString(&config.PrincipalEmail, c.PrincipalEmail)
	setString(&config.LegacySalt, c.LegacySalt)
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
