package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis   `yaml:"redis"`
	NATS       NATS    `yaml:"nats"`
	Game       Game    `yaml:"game"`
	Gateway    Gateway `yaml:"gateway"`
}

type Redis struct {
	Host      string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port      string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	RecordTTL time.Duration `yaml:"record-ttl" env:"REDIS_RECORD_TTL" env-default:"24h"`
}

// NATS publishing is disabled when URL is empty.
type NATS struct {
	URL     string `yaml:"url" env:"NATS_URL" env-default:""`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"seafight.match.finished"`
}

type Game struct {
	BoardSize         int           `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"10"`
	Fleet             []int         `yaml:"fleet" env:"GAME_FLEET" env-default:"5,4,3,3,2"`
	// FleetPreset, when set, replaces Fleet and may turn NoTouch on.
	FleetPreset string `yaml:"fleet-preset" env:"GAME_FLEET_PRESET" env-default:""`
	StartingSeat      string        `yaml:"starting-seat" env:"GAME_STARTING_SEAT" env-default:"random"`
	NoTouch           bool          `yaml:"no-touch" env:"GAME_NO_TOUCH" env-default:"false"`
	PlacementAttempts int           `yaml:"placement-attempts" env:"GAME_PLACEMENT_ATTEMPTS" env-default:"1000"`
	CodeLength        int           `yaml:"code-length" env:"GAME_CODE_LENGTH" env-default:"5"`
	CodeCooldown      time.Duration `yaml:"code-cooldown" env:"GAME_CODE_COOLDOWN" env-default:"10m"`
	ArchiveQueue      int           `yaml:"archive-queue" env:"GAME_ARCHIVE_QUEUE" env-default:"256"`
}

type Gateway struct {
	MessageRate  float64 `yaml:"message-rate" env:"GATEWAY_MESSAGE_RATE" env-default:"5"`
	MessageBurst int     `yaml:"message-burst" env:"GATEWAY_MESSAGE_BURST" env-default:"10"`
	SendBuffer   int     `yaml:"send-buffer" env:"GATEWAY_SEND_BUFFER" env-default:"256"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *NATS) Enabled() bool {
	return that.URL != ""
}
