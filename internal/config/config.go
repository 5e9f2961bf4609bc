package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3000"`
	Redis      Redis  `yaml:"redis"`
	Match      Match  `yaml:"match"`
	Socket     Socket `yaml:"socket"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Match struct {
	ResetDelay        time.Duration `yaml:"reset-delay" env:"MATCH_RESET_DELAY" env-default:"3s"`
	CountdownInterval time.Duration `yaml:"countdown-interval" env:"MATCH_COUNTDOWN_INTERVAL" env-default:"1s"`
	ChatLimit         int           `yaml:"chat-limit" env:"MATCH_CHAT_LIMIT" env-default:"500"`
}

type Socket struct {
	SendBuffer     int      `yaml:"send-buffer" env:"SOCKET_SEND_BUFFER" env-default:"64"`
	ReadLimit      int64    `yaml:"read-limit" env:"SOCKET_READ_LIMIT" env-default:"4096"`
	AllowedOrigins []string `yaml:"allowed-origins" env:"SOCKET_ALLOWED_ORIGINS" env-separator:","`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
