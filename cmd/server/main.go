package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Best-effort local .env loading, the teacher's cmd/v1/session/main.go
	// pattern; a missing file is not an error in production.
	_ = godotenv.Load()

	cobra.CheckErr(newServeCmd().Execute())
}
