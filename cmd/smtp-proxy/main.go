package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lifeafter619/mail-gateway/internal/config"
	"github.com/lifeafter619/mail-gateway/internal/smtpproxy"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	server := smtpproxy.NewServer(cfg.SMTPProxy)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting SMTP proxy on %s, forwarding to %s", cfg.SMTPProxy.Addr, cfg.SMTPProxy.GatewayURL)
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("SMTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	if err := server.Close(); err != nil {
		log.Printf("SMTP server close error: %v", err)
	}
	log.Println("SMTP proxy stopped")
}
