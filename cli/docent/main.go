package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	docentcmder "github.com/papercomputeco/docent/cmd/docent"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cmd := docentcmder.NewDocentCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
