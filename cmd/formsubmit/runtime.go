package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsubmit/internal/config"
	"github.com/goliatone/go-formsubmit/internal/logging"
)

func loadRuntime() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, logging.Nop(), err
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format, "formsubmit"), nil
}
