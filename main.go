package main

import (
	"os"

	"go-shop-api/cmd"
	"go-shop-api/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Get().WithError(err).Error("shop-api exited")
		os.Exit(1)
	}
}
