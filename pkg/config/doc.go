// Package config loads typed application configuration from environment
// variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// default .env file is loaded once if present, then env.Parse fills any
// struct with `env` field tags. Each config type is parsed at most once
// per process and cached, so packages can call Load for their own config
// structs independently without re-reading the environment.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
package config
