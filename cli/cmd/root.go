package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wkalt/prdemo/config"
	"github.com/wkalt/prdemo/util/log"
)

var (
	logLevel string
	noColor  bool
)

var cfg = loadConfig()

var rootCmd = &cobra.Command{
	Use:   "prdemo",
	Short: "Decode Project Reality demo recordings",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			bailf("%s", err)
		}
		log.Configure(os.Stderr, level)
		if noColor {
			color.NoColor = true
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func bailf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func checkErr(err error) {
	if err != nil {
		bailf("error: %v", err)
	}
}

func loadConfig() config.Config {
	c, err := config.Load()
	checkErr(err)
	return c
}

// runContext tags the command context with a fresh run id.
func runContext(cmd *cobra.Command) context.Context {
	return log.AddTags(cmd.Context(), "run", uuid.NewString())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", cfg.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&noColor, "no-color", "", cfg.NoColor, "disable colored output")
}
