package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	WS_PORT      string `env:"WS_PORT" envDefault:"4411"`
	POSTGRES_URI string `env:"POSTGRES_URI"`
	LOG_LEVEL    string `env:"LOG_LEVEL" envDefault:"info"`
	PRETTY_LOGS  bool   `env:"PRETTY_LOGS" envDefault:"false"`
}

var AppConfig Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found.")
	}

	if err := env.Parse(&AppConfig); err != nil {
		log.Fatal("Cannot parse environment config:", err)
	}
}
