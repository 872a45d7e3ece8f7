package main

import (
	"flag"
	"log"
)

func main() {
	configPath := flag.String("config", "auction.yaml", "Path to the auction configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	server, err := NewAuctionServer(cfg)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	log.Fatal(server.Start())
}
