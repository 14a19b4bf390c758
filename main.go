package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"quizline/internal/config"
	"quizline/internal/server"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [port]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  port: listen port, 1..65535 (default 4000)\n")
	os.Exit(1)
}

func main() {
	// Load configuration
	cfg := config.Load()

	// A single optional positional argument overrides the listen port.
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil {
			usage()
		}
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		usage()
	}

	srv := server.NewServer(cfg)
	log.Printf("Starting quiz server on port %d", cfg.Port)
	if err := srv.Start(); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
	srv.Wait()
}
