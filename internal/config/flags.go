package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared with the CLI.
const (
	FlagConfig         = "config"
	FlagDSN            = "dsn"
	FlagStore          = "store"
	FlagFSRoot         = "fs-root"
	FlagS3User         = "s3-user"
	FlagS3Password     = "s3-password"
	FlagS3Bucket       = "s3-bucket"
	FlagS3Region       = "s3-region"
	FlagS3Endpoint     = "s3-endpoint"
	FlagS3Timeout      = "s3-timeout"
	FlagTokenSecret    = "token-secret"
	FlagToken          = "token"
	FlagPrincipal      = "principal"
	FlagPrincipalEmail = "email"
	FlagLegacySalt     = "legacy-salt"
	FlagLogLevel       = "log-level"
)

// RegisterFlags declares every configuration flag on fs. Defaults shown in
// help come from LoadDefaults; values are read back by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := &Config{}
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML configuration file")
	fs.String(FlagDSN, d.DatabaseDSN, "PostgreSQL DSN of the metadata store")
	fs.String(FlagStore, d.ObjectStore, "object store backend: s3, fs or memory")
	fs.String(FlagFSRoot, d.FileStoreRoot, "root directory of the fs object store")
	fs.String(FlagS3User, d.S3RootUser, "S3 access key")
	fs.String(FlagS3Password, d.S3RootPassword, "S3 secret key")
	fs.String(FlagS3Bucket, d.S3Bucket, "S3 bucket")
	fs.String(FlagS3Region, d.S3Region, "S3 region")
	fs.String(FlagS3Endpoint, d.S3BaseEndpoint, "S3 base endpoint")
	fs.Duration(FlagS3Timeout, d.S3Timeout, "per-request S3 timeout")
	fs.String(FlagTokenSecret, d.TokenSecret, "HMAC secret for identity tokens")
	fs.String(FlagToken, "", "identity token (overrides --principal/--email)")
	fs.String(FlagPrincipal, "", "principal id when no token is given")
	fs.String(FlagPrincipalEmail, "", "principal email, used for legacy decryption only")
	fs.String(FlagLegacySalt, d.LegacySalt, "historical salt of the legacy scheme")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
}

// applyFlags copies only the flags the user actually set, so they win over
// the JSON file without resetting it to defaults.
func applyFlags(config *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		FlagDSN:            &config.DatabaseDSN,
		FlagStore:          &config.ObjectStore,
		FlagFSRoot:         &config.FileStoreRoot,
		FlagS3User:         &config.S3RootUser,
		FlagS3Password:     &config.S3RootPassword,
		FlagS3Bucket:       &config.S3Bucket,
		FlagS3Region:       &config.S3Region,
		FlagS3Endpoint:     &config.S3BaseEndpoint,
		FlagTokenSecret:    &config.TokenSecret,
		FlagToken:          &config.AccessToken,
		FlagPrincipal:      &config.PrincipalID,
		FlagPrincipalEmail: &config.PrincipalEmail,
		FlagLegacySalt:     &config.LegacySalt,
		FlagLogLevel:       &config.LogLevel,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed(FlagS3Timeout) {
		v, err := fs.GetDuration(FlagS3Timeout)
		if err != nil {
			return err
		}
		config.S3Timeout = v
	}
	return nil
}

// Load builds a Config from defaults, then the JSON file named by --config
// (if any), then explicitly set flags. fs must have been parsed already.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
