package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"iconsmith/src/common"
	"iconsmith/src/config"
	"iconsmith/src/watcher"
)

func main() {
	fmt.Println("Iconsmith - App Icon & Favicon Generator")
	fmt.Println("========================================")

	cfg := loadConfig()
	if cfg == nil {
		return
	}

	log.Printf("Source: %s", cfg.Source)
	if cfg.Icons.Enabled {
		log.Printf("Icons output: %s", cfg.Icons.OutputDir)
	}
	if cfg.Favicon.Enabled {
		log.Printf("Favicon output: %s", cfg.Favicon.OutputDir)
	}

	generator := common.NewGenerator(cfg)
	regenerate := func() []*common.Result {
		results := generator.Run()
		for _, r := range results {
			r.Log()
		}
		return results
	}

	// Failures are reported, never turned into an exit code
	regenerate()

	if !cfg.Watch {
		return
	}

	w, err := watcher.NewWatcher(cfg, regenerate)
	if err != nil {
		log.Printf("Failed to create watcher: %v", err)
		return
	}

	if err := w.Start(); err != nil {
		log.Printf("Failed to start watcher: %v", err)
		return
	}

	log.Println("Press Ctrl+C to stop")

	// Listen for events
	go func() {
		for event := range w.Events() {
			log.Printf("📄 Event: %v - %s", event.Type, event.FilePath)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	if err := w.Stop(); err != nil {
		log.Printf("Failed to stop watcher: %v", err)
	}
}

// loadConfig returns nil after logging when no usable configuration exists.
// The process still exits 0 in that case.
func loadConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		log.Printf("Failed to resolve working directory: %v", err)
		return nil
	}

	cfg, err := config.LoadFromEnvironment(baseDir)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return nil
	}
	return cfg
}
