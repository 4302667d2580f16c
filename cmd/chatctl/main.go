package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "chatctl",
		Usage: "command line client for the imchat public room",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Value:   "http://127.0.0.1:18080",
				Usage:   "server base URL",
				EnvVars: []string{"IM_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token from login",
				EnvVars: []string{"IM_TOKEN"},
			},
		},
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			joinCommand(),
			sendCommand(),
			pullCommand(),
			readCommand(),
			listCommand(),
			tailCommand(),
			seedCommand(),
			autoReplyCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("print result: %w", err)
	}
	return nil
}
