package main

import (
	"context"
	"os"

	logrus "github.com/sirupsen/logrus"

	"tokenlaunch/internal/app"
	"tokenlaunch/internal/handlers"
	"tokenlaunch/internal/launch"
	"tokenlaunch/internal/routes"
	"tokenlaunch/pkg/config"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(config.LogLevel())

	cfg, err := config.LoadLaunchConfig()
	if err != nil {
		logrus.Fatal("Invalid launch configuration: ", err)
	}

	config.InitDB()
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		config.ExecuteMigrations()
	}

	handler := &handlers.TokenLaunchHandler{}
	var events launch.EventPublisher

	// RabbitMQ is optional; without it launches only run synchronously.
	if config.RabbitMQEnabled() {
		config.InitRabbitMQ()
		defer config.RabbitMQ.Close()

		publisher, err := config.NewPublisher()
		if err != nil {
			logrus.Fatal("Failed to create publisher: ", err)
		}
		defer publisher.Close()

		handler.Queue = publisher
		events = publisher
		logrus.Info("RabbitMQ initialized successfully")
	} else {
		logrus.Info("RabbitMQ not configured, async launches disabled")
	}

	services, err := app.New(context.Background(), cfg, config.DB, events)
	if err != nil {
		logrus.Fatal("Failed to set up launch services: ", err)
	}
	defer services.Close()

	handler.Launcher = services.Launcher
	handler.Store = services.Store

	r := routes.SetupRouter(handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.WithFields(logrus.Fields{"port": port, "network": cfg.Network}).Info("Token launch API starting")
	if err := r.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start server: ", err)
	}
}
