package main

import (
	"context"
	"log"

	"github.com/m3rciful/campusbot/campus/app"
	"github.com/m3rciful/campusbot/core/bootstrap"
	corecmd "github.com/m3rciful/campusbot/core/cmd"
	coreconfig "github.com/m3rciful/campusbot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			a, err := app.New(ctx, cfg, infra)
			if err != nil {
				_ = infra.Close()
				return nil, err
			}
			return a, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
