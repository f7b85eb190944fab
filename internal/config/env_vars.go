package config

import (
	"os"
	"path/filepath"
)

const (
	appNameVar        = "APP_NAME"
	credentialsDirVar = "CREDENTIALS_DIR"
	logLevelVar       = "LOG_LEVEL"
)

type EnvConfig interface {
	GetAppName() string
	GetCredentialsDir() string
	GetLogLevel() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "E-Library Session")
}

// GetCredentialsDir returns the directory holding the persisted credential
// entries. Defaults to a per-user state directory.
func (EnvVars) GetCredentialsDir() string {
	if dir := GetEnv(credentialsDirVar, ""); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".elibrary"
	}
	return filepath.Join(home, ".elibrary")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
