package main

import (
	"flag"
	"os"

	logrus "github.com/sirupsen/logrus"

	"tokenlaunch/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	logrus.SetLevel(config.LogLevel())

	// Keep InitDB from auto-migrating over the managed schema.
	os.Setenv("RUN_MIGRATIONS", "true")
	config.InitDB()

	if *down {
		config.RollbackMigration()
		return
	}
	config.ExecuteMigrations()
}
