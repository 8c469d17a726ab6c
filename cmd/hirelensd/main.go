package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hirelens/hirelens/internal/cli"
	"github.com/hirelens/hirelens/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hirelensd",
		Short: "Hirelens daemon and CLI",
		Long:  "Hirelens daemon for running the similarity API server and managing the analysis cache",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.CacheCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
