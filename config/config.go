// Package config loads the server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the YAML file Load reads when no path is given.
const EnvConfigFile = "STEG_CONFIG"

// ServerConfig is the HTTP listener and upload policy.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// MaxUploadMB bounds multipart uploads, files included.
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// ImageConfig is the geometry of bitmaps synthesized without a host.
type ImageConfig struct {
	Width        uint32 `yaml:"width"`
	Height       uint32 `yaml:"height"`
	BitsPerPixel uint16 `yaml:"bits_per_pixel"`
}

// AudioConfig describes WAV carriers synthesized without a host.
type AudioConfig struct {
	Channels      uint16 `yaml:"channels"`
	SampleRate    uint32 `yaml:"sample_rate"`
	BitsPerSample uint16 `yaml:"bits_per_sample"`
	// Mode is "raw" or "waveform" and applies when a request names none.
	Mode string `yaml:"mode"`
}

type StegoConfig struct {
	// MinPSNR below which an embed is logged as audible or visible.
	MinPSNR float64 `yaml:"min_psnr"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Image  ImageConfig  `yaml:"image"`
	Audio  AudioConfig  `yaml:"audio"`
	Stego  StegoConfig  `yaml:"stego"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadMB:    32,
		},
		Image: ImageConfig{
			Width:        256,
			Height:       256,
			BitsPerPixel: 24,
		},
		Audio: AudioConfig{
			Channels:      1,
			SampleRate:    44100,
			BitsPerSample: 16,
			Mode:          "raw",
		},
		Stego: StegoConfig{
			MinPSNR: 30,
		},
	}
}

// Load reads path over the defaults. An empty path falls back to
// $STEG_CONFIG; a missing file leaves the defaults in place. $PORT, when
// set, overrides the configured port.
func Load(path string) (*Config, error) {
	conf := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, conf); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		conf.Server.Port = port
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("config: server port is empty")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return errors.New("config: no allowed origins")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("config: max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Image.Width == 0 || c.Image.Height == 0 {
		return fmt.Errorf("config: image size %dx%d", c.Image.Width, c.Image.Height)
	}
	switch c.Image.BitsPerPixel {
	case 16, 24, 32:
	default:
		return fmt.Errorf("config: image bits_per_pixel %d", c.Image.BitsPerPixel)
	}
	if c.Audio.Channels == 0 {
		return errors.New("config: audio channels is zero")
	}
	switch c.Audio.BitsPerSample {
	case 8, 16, 32:
	default:
		return fmt.Errorf("config: audio bits_per_sample %d", c.Audio.BitsPerSample)
	}
	switch c.Audio.Mode {
	case "raw", "waveform":
	default:
		return fmt.Errorf("config: audio mode %q", c.Audio.Mode)
	}
	return nil
}
