package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings are the environment driven defaults of the persistent flags.
type Settings struct {
	ConfigPath string `env:"JWTGEN_CONFIG" envDefault:"configs/envs.example.yaml"`
	PayloadDir string `env:"JWTGEN_PAYLOAD_DIR" envDefault:"configs/payloads"`
	LogLevel   string `env:"JWTGEN_LOG_LEVEL" envDefault:"warn"`
	LogFormat  string `env:"JWTGEN_LOG_FORMAT" envDefault:"text"`
	Output     string `env:"JWTGEN_OUTPUT" envDefault:"text"`
}

// DefaultEnvFile returns the .env path, honouring JWTGEN_ENV_FILE.
func DefaultEnvFile() string {
	if path := os.Getenv("JWTGEN_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// LoadSettings loads envFile (if present) without overriding variables that are
// already set, then parses the JWTGEN_* variables.
func LoadSettings(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}
