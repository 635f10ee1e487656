// @title Victorina API
// @version 1.0
// @description Quiz platform backend: quiz catalog, attempts, scoring, ratings, feed and messaging.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"os"
	"victorina_backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
