package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SkyMack/qlthumb/internal/clibase"
	"github.com/SkyMack/qlthumb/internal/generator"
	log "github.com/sirupsen/logrus"
)

const (
	appName        = "thumbnailer"
	appDescription = "Generates PNG thumbnails for arbitrary files using the Quick Look qlmanage utility."
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := clibase.New(appName, appDescription)

	generator.AddCmdCreate(rootCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.WithFields(
			log.Fields{
				"app.name": appName,
				"error":    err.Error(),
			},
		).Fatal("application exited with an error")
	}
}
