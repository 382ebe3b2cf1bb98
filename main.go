package main

import (
	"os"
	"os/signal"
	"syscall"

	"gmaps-scraper/config"
	"gmaps-scraper/jobs"
	"gmaps-scraper/scraper/gmaps"
	"gmaps-scraper/server"
	"gmaps-scraper/utils"
)

func main() {
	cfg := config.Load()
	utils.Info("Scraper service starting | port=%d concurrency=%d retention=%v",
		cfg.Port, cfg.MaxConcurrentJobs, cfg.JobRetention)

	scraper := gmaps.NewScraper(cfg)
	coordinator := jobs.NewCoordinator(scraper, cfg)
	defer coordinator.Close()

	srv := server.New(cfg, coordinator)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		utils.Info("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			utils.Error("Shutdown error: %v", err)
		}
	}()

	if err := srv.Listen(); err != nil {
		utils.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
