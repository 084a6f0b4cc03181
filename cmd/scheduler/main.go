package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	logrus "github.com/sirupsen/logrus"

	"tokenlaunch/internal/app"
	"tokenlaunch/pkg/config"
)

// Bundles older than this with no trace on chain are marked dropped.
const dropAfter = 5 * time.Minute

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetLevel(config.LogLevel())
	logrus.Info("> Starting bundle reconciliation scheduler...")

	cfg, err := config.LoadLaunchConfig()
	if err != nil {
		logrus.Fatalf("> Invalid launch configuration: %v", err)
	}

	config.InitDB()
	logrus.Info("> Database connection initialized")

	services, err := app.New(context.Background(), cfg, config.DB, nil)
	if err != nil {
		logrus.Fatalf("> Failed to set up launch services: %v", err)
	}
	defer services.Close()

	reconciler := services.Reconciler(dropAfter)

	spec := os.Getenv("RECONCILE_CRON")
	if spec == "" {
		spec = "*/30 * * * * *"
	}

	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err = c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		stats, err := reconciler.Run(ctx)
		if err != nil {
			logrus.Errorf("> Bundle reconciliation failed: %v", err)
			return
		}
		if stats.Checked > 0 {
			logrus.WithFields(logrus.Fields{
				"checked": stats.Checked,
				"landed":  stats.Landed,
				"failed":  stats.Failed,
				"dropped": stats.Dropped,
			}).Info("> Bundle reconciliation finished")
		}
	})
	if err != nil {
		logrus.Fatalf("> Failed to add cron job: %v", err)
	}

	logrus.Infof("> Reconciliation scheduled with %q", spec)
	c.Start()

	select {}
}
