package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	apicmder "github.com/papercomputeco/docent/cmd/docent/serve/api"
)

func main() {
	_ = godotenv.Load()

	cmd := apicmder.NewAPICmd()
	cmd.Use = "docentapi"
	cmd.SilenceUsage = true
	bootstrap.AddPersistentFlags(cmd)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
