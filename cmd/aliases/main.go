package main

import (
	"os"

	"audio2sign/pkg/assets"
	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file")
	dir := pflag.String("dir", "", "clip directory (defaults to the secondary asset root)")
	pflag.Parse()

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		logger.New(true).Fatalw("Failed to load config", "error", err)
	}
	log := logger.New(cfg.Debug)
	defer log.Sync()

	target := *dir
	if target == "" {
		target = cfg.Assets.Secondary.Dir
	}

	report, err := assets.CreateAliases(afero.NewOsFs(), target, assets.DefaultAliases, log)
	log.Infow("Alias creation finished", "dir", target,
		"created", len(report.Created), "skipped", len(report.Skipped), "missing_sources", report.MissingSources)
	if err != nil {
		log.Errorw("Some aliases could not be created", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
