package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`

	BoardURL  string `env:"BOARD_URL"  envDefault:"https://e926.net"`
	Username  string `env:"BOARD_USERNAME"`
	APIKey    string `env:"BOARD_API_KEY"`
	UserAgent string `env:"USER_AGENT" envDefault:"boorugram/1.0 (by boorugram on e621)"`

	DBPath      string `env:"DB_PATH"      envDefault:"db.sqlite"`
	DownloadDir string `env:"DOWNLOAD_DIR" envDefault:"downloads"`

	// The board bans clients that exceed 2 requests per second.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"2"`

	RefreshSpec string `env:"REFRESH_SPEC" envDefault:"0 * * * *"`

	SeenPostsCap     int `env:"SEEN_POSTS_CAP"     envDefault:"20000"`
	SuggestIndexSize int `env:"SUGGEST_INDEX_SIZE" envDefault:"5000"`
	SearchPageSize   int `env:"SEARCH_PAGE_SIZE"   envDefault:"10"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}
