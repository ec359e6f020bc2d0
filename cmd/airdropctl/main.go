// Package main — операторская утилита airdropctl.
// Работает с тем же хранилищем, что и бот (STORE_BACKEND, DB_*, LEVELDB_PATH).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/airdrop-bot/internal/cli"
)

func main() {
	// Логи в stderr, чтобы не смешивать с --format json
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	if level, err := log.ParseLevel(os.Getenv("APP_LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		stop()
		os.Exit(1)
	}
}
