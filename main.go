package main

import (
	"flag"
	"log"

	"github.com/ran4na/steg/config"
	"github.com/ran4na/steg/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $STEG_CONFIG)")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	router := handlers.NewRouter(conf)

	port := conf.Server.Port
	log.Printf("Server starting on port %s", port)
	log.Printf("API endpoints:")
	log.Printf("  POST /api/v1/stego/embed      - Embed a message in a BMP or WAV host (returns the stego file)")
	log.Printf("  POST /api/v1/stego/extract    - Extract a message from a stego BMP or WAV file")
	log.Printf("  POST /api/v1/stego/capacity   - Report how many bytes a host can carry")
	log.Printf("  POST /api/v1/stego/synthesize - Embed a message in a freshly generated carrier")
	log.Printf("  GET  /api/v1/health           - Health check")
	log.Printf("")
	log.Printf("Hosts: BMP and PCM WAV; PNG, JPEG, GIF, TIFF and WebP are converted to BMP, MP3 and FLAC to WAV")
	log.Printf("Audio modes: raw (default %q), waveform", conf.Audio.Mode)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
