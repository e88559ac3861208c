package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	logging "sona/pkg/logger/pkg"
)

func Execute() {
	// .env is optional; container deployments inject real env vars.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	viper.SetConfigFile("./config/config.yaml")
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file loaded: %v", err)
	}

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	startHTTP(logger)
}
