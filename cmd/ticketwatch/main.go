package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"ticketwatch/internal/app"
	"ticketwatch/internal/monitor"
)

const (
	exitOK            = 0
	exitStartup       = 1
	exitTooManyErrors = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath string
		envFile string
		once    bool
	)
	flags := pflag.NewFlagSet("ticketwatch", pflag.ContinueOnError)
	flags.StringVarP(&cfgPath, "config", "c", "./config.json", "path to config file (JSON or YAML); may be absent")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the config")
	flags.BoolVar(&once, "once", false, "check the page once, print the status and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitStartup
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "fatal: env file:", err)
			return exitStartup
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return exitStartup
	}
	defer a.Close()

	if once {
		st, err := a.RunOnce(ctx)
		fmt.Println(st.Label())
		if err != nil {
			fmt.Fprintln(os.Stderr, "check failed:", err)
			return exitStartup
		}
		return exitOK
	}

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, monitor.ErrTooManyErrors) {
			return exitTooManyErrors
		}
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return exitStartup
	}
	return exitOK
}
