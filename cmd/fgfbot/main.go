package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fgfbot/internal/app"
	"fgfbot/internal/config"
	logx "fgfbot/pkg/logx"
)

func main() {
	var dotenv string
	flag.StringVar(&dotenv, "env", ".env", "dotenv file loaded before reading the environment (missing is fine)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, dotenv); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dotenv string) error {
	cfg, err := config.Load(dotenv)
	if err != nil {
		return err
	}

	logs, log := logx.New(cfg.LogConfig())
	defer logs.Close()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("init failed", logx.Err(err))
		return err
	}
	defer a.Close()

	if _, err := a.Run(ctx); err != nil {
		log.Error("cycle aborted", logx.Err(err))
		return err
	}
	return nil
}
