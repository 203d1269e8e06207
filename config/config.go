package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Plex   PlexConfig   `yaml:"plex"`
	Import ImportConfig `yaml:"import"`
	Server ServerConfig `yaml:"server"`
}

type PlexConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	MusicSection string `yaml:"music_section"`
}

type ImportConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`

	// AppendOnly skips the replace step and only adds tracks missing from
	// an existing playlist. The default is a full replace.
	AppendOnly bool `yaml:"append_only"`

	DefaultPlaylistName string `yaml:"default_playlist_name"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	applyDefaults(config)
	return config, nil
}

// Default returns a config built purely from defaults and environment
// overrides, for running without a config file.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Plex.URL == "" {
		config.Plex.URL = "http://plex:32400"
	}
	if config.Plex.MusicSection == "" {
		config.Plex.MusicSection = "Music"
	}
	if config.Import.MatchThreshold == 0 {
		config.Import.MatchThreshold = 70.0
	}
	if config.Import.DefaultPlaylistName == "" {
		config.Import.DefaultPlaylistName = "Imported Playlist"
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	// Environment wins over file values for the connection settings, so
	// docker deployments can inject them.
	if url := os.Getenv("PLEX_URL"); url != "" {
		config.Plex.URL = url
	}
	if token := os.Getenv("PLEX_TOKEN"); token != "" {
		config.Plex.Token = token
	}
}
