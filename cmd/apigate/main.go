// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command apigate serves the API described by a Swagger 2.0 definition.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", slog.Any("error", err))
		os.Exit(1)
	}

	err = rootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
