package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for DISPLAY_TZ

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/season-snow-board/internal/snow"
)

//go:embed resorts.yaml
var resortsYAML []byte

var validate = validator.New()

type AppConfig struct {
	// VestaboardKey is the read/write secret for the display.
	VestaboardKey string `validate:"required_if=DryRun false"`
	VestaboardURL string

	OpenMeteoURL      string
	OpenMeteoTimezone string

	// DisplayLocation is the zone for the UPDATED line and the schedule.
	DisplayLocation *time.Location `validate:"required"`

	DataFile    string `validate:"required"`
	StoreDriver string `validate:"oneof=file sqlite memory"`

	FetchTimeout   time.Duration `validate:"gt=0"`
	PublishTimeout time.Duration `validate:"gt=0"`

	SeasonStartPolicy string `validate:"oneof=calendar rolling"`

	DryRun bool

	// Schedule is a cron expression; empty means run once and exit.
	Schedule string
	Port     string

	Env string

	Resorts []snow.Resort
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &AppConfig{}

	cfg.VestaboardKey = os.Getenv("VESTABOARD_RW_KEY")
	cfg.VestaboardURL = getenvDefault("VESTABOARD_URL", "https://rw.vestaboard.com/")
	cfg.OpenMeteoURL = getenvDefault("OPEN_METEO_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.OpenMeteoTimezone = getenvDefault("OPEN_METEO_TZ", "America/Denver")

	loc, err := time.LoadLocation(getenvDefault("DISPLAY_TZ", "America/Denver"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TZ: %w", err)
	}
	cfg.DisplayLocation = loc

	cfg.DataFile = getenvDefault("DATA_FILE", "season_totals.json")
	cfg.StoreDriver = getenvDefault("STORE_DRIVER", "file")

	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.PublishTimeout, err = getenvDuration("PUBLISH_TIMEOUT", "20s"); err != nil {
		return nil, err
	}

	cfg.SeasonStartPolicy = getenvDefault("SEASON_START_POLICY", "calendar")
	cfg.DryRun = getenvBool("DRY_RUN", false)
	cfg.Schedule = strings.TrimSpace(os.Getenv("SCHEDULE"))
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Env = getenvDefault("APP_ENV", "prod")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	resorts, err := LoadResorts()
	if err != nil {
		return nil, err
	}
	cfg.Resorts = resorts

	return cfg, nil
}

// LoadResorts returns the compiled-in resort table in display order.
func LoadResorts() ([]snow.Resort, error) {
	return parseResorts(resortsYAML)
}

type resortTable struct {
	// the board has exactly four resort rows
	Resorts []snow.Resort `yaml:"resorts" validate:"len=4,unique=Name,dive"`
}

func parseResorts(data []byte) ([]snow.Resort, error) {
	var table resortTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse resort table: %w", err)
	}
	if err := validate.Struct(table); err != nil {
		return nil, fmt.Errorf("invalid resort table: %w", err)
	}
	return table.Resorts, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
