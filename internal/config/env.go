package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set are left untouched. If allowMissing is
// true, a missing file is not an error.
func LoadEnvFile(path string, allowMissing bool) error {
	if err := godotenv.Load(path); err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("loading env file %s: %w", path, err)
	}

	return nil
}
