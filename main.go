package main

import (
	"fmt"
	"os"

	"webhook-guard/internal/app"
)

// @title webhook-guard API
// @version 1.0
// @description Verifies GitHub and Stripe webhook signatures and guards admin endpoints with a shared token.
// @BasePath /
// @securityDefinitions.apikey AdminToken
// @in header
// @name Authorization
func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "webhook-guard: %v\n", err)
		os.Exit(1)
	}
}
