package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vladislavdragonenkov/food-oms/internal/app"
	"github.com/vladislavdragonenkov/food-oms/internal/config"
	"github.com/vladislavdragonenkov/food-oms/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

func main() {
	setupLogger()
	config.MustInit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_port":    viper.GetString("server.http.port"),
		"metrics_addr": viper.GetString("server.metrics.addr"),
		"storage":      viper.GetString("storage.driver"),
		"version":      version.String(),
	}).Info("запускаем сервис заказов")

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервис заказов остановлен")
}
