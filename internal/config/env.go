package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFile loads variables from .env and .env.local in the site root.
// Existing process environment variables are never overwritten, and missing files are skipped.
func loadEnvFile(root string) error {
	for _, name := range []string{".env", ".env.local"} {
		err := godotenv.Load(filepath.Join(root, name))
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return err
	}
	return nil
}
