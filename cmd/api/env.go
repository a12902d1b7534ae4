package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// loadEnvFile copies variables from a dotenv file into the process
// environment. A missing file is normal; a broken one is reported.
func loadEnvFile(path string) {
	err := godotenv.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("no .env file found, using process environment")
	default:
		slog.Warn("failed to load .env file", "path", path, "error", err)
	}
}
