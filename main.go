package main

import (
	"embed"
	"flag"

	"github.com/chazu/harnessview/pkg/config"
	"github.com/golang/glog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

var configPath = flag.String("config", "", "YAML viewport configuration")

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		glog.Fatal(err)
	}
	app, err := NewApp(cfg)
	if err != nil {
		glog.Fatal(err)
	}

	err = wails.Run(&options.App{
		Title:  "harnessview",
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []interface{}{app},
	})
	if err != nil {
		glog.Fatal(err)
	}
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Resolve()
	return cfg, nil
}
