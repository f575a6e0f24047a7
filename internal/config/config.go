package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env-default:"local"`
	HTTP    HTTPConfig    `yaml:"http"`
	WebRTC  WebRTCConfig  `yaml:"webrtc"`
	Session SessionConfig `yaml:"session"`
}

type HTTPConfig struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:""`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers" env-default:""`
}

type SessionConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	StaleAfter        time.Duration `yaml:"stale_after"`
	RoomGrace         time.Duration `yaml:"room_grace"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.BaseURL == "" {
		c.HTTP.BaseURL = "http://localhost:8080"
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{
			"stun:stun.l.google.com:19302",
			"stun:stun1.l.google.com:19302",
			"stun:stun2.l.google.com:19302",
		}
	}
	if c.Session.HeartbeatInterval <= 0 {
		c.Session.HeartbeatInterval = 10 * time.Second
	}
	if c.Session.SweepInterval <= 0 {
		c.Session.SweepInterval = 20 * time.Second
	}
	if c.Session.StaleAfter <= 0 {
		c.Session.StaleAfter = 40 * time.Second
	}
	if c.Session.RoomGrace <= 0 {
		c.Session.RoomGrace = 10 * time.Minute
	}
}
