// Package appconf loads the server configuration from defaults, an optional
// YAML file, TRANSITMAP_* environment variables and command-line flags, in
// increasing order of precedence.
package appconf

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"transitmap.onebusaway.org/internal/projector"
)

// MapConfig holds the map widget settings shared with the page.
type MapConfig struct {
	CenterLat          float64             `yaml:"center_lat" json:"centerLat" validate:"latitude"`
	CenterLon          float64             `yaml:"center_lon" json:"centerLon" validate:"longitude"`
	InitialZoom        int                 `yaml:"initial_zoom" json:"initialZoom" validate:"gtefield=MinZoom,ltefield=MaxZoom"`
	MinZoom            int                 `yaml:"min_zoom" json:"minZoom" validate:"gte=0,lte=22"`
	MaxZoom            int                 `yaml:"max_zoom" json:"maxZoom" validate:"gte=0,lte=22,gtefield=MinZoom"`
	LocateZoom         int                 `yaml:"locate_zoom" json:"locateZoom" validate:"gte=0,lte=22"`
	ClusterDisableZoom int                 `yaml:"cluster_disable_zoom" json:"clusterDisableZoom" validate:"gte=0,lte=22"`
	ClusterRadius      int                 `yaml:"cluster_radius" json:"clusterRadius" validate:"gt=0"`
	TileURL            string              `yaml:"tile_url" json:"tileUrl" validate:"required"`
	Attribution        string              `yaml:"attribution" json:"attribution"`
	Palette            projector.Palette   `yaml:"palette" json:"palette"`
	Line               projector.LineStyle `yaml:"line" json:"line"`
}

type Config struct {
	Port           int           `yaml:"port" validate:"gte=1,lte=65535"`
	Env            Environment   `yaml:"env"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	DataSource     string        `yaml:"data_source" validate:"required_without=GTFSSource"`
	GTFSSource     string        `yaml:"gtfs_source"`
	RateLimit      int           `yaml:"rate_limit" validate:"gte=0"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	TrustedProxies []string      `yaml:"trusted_proxies" validate:"dive,cidr|ip"`
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gte=0"`
	Map            MapConfig     `yaml:"map"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:       4000,
		Env:        Development,
		LogLevel:   "info",
		DataSource: "public_data",
		RateLimit:  20,
		SessionTTL: 30 * time.Minute,
		Map: MapConfig{
			CenterLat:          45.07,
			CenterLon:          7.69,
			InitialZoom:        15,
			MinZoom:            10,
			MaxZoom:            19,
			LocateZoom:         15,
			ClusterDisableZoom: 17,
			ClusterRadius:      200,
			TileURL:            "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution:        "&copy; OpenStreetMap contributors",
			Palette:            projector.DefaultPalette(),
			Line:               projector.DefaultLineStyle(),
		},
	}
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the configuration. getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (Config, error) {
	var (
		flags      Config
		envFlag    string
		originFlag string
		proxyFlag  string
	)
	set := flag.NewFlagSet("transitmap", flag.ContinueOnError)
	configPath := set.String("config", getenv("TRANSITMAP_CONFIG"), "YAML configuration file")
	set.IntVar(&flags.Port, "port", 0, "HTTP server port")
	set.StringVar(&envFlag, "env", "", "Environment (development|test|production)")
	set.StringVar(&flags.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	set.StringVar(&flags.DataSource, "data", "", "Directory or base URL holding the five dataset JSON files")
	set.StringVar(&flags.GTFSSource, "gtfs", "", "GTFS zip path or URL converted at startup instead of -data")
	set.IntVar(&flags.RateLimit, "rate-limit", 0, "Requests per second allowed per client (0 disables)")
	set.StringVar(&originFlag, "origins", "", "Comma separated CORS origins")
	set.StringVar(&proxyFlag, "trusted-proxies", "", "Comma separated proxy IPs or CIDRs whose X-Forwarded-For is honored")
	set.DurationVar(&flags.SessionTTL, "session-ttl", 0, "Idle time after which a map session is dropped")
	if err := set.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.loadYAML(*configPath); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	set.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flags.Port
		case "env":
			cfg.Env = EnvFlagToEnvironment(envFlag)
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "data":
			cfg.DataSource = flags.DataSource
		case "gtfs":
			cfg.GTFSSource = flags.GTFSSource
		case "rate-limit":
			cfg.RateLimit = flags.RateLimit
		case "origins":
			cfg.AllowedOrigins = splitList(originFlag)
		case "trusted-proxies":
			cfg.TrustedProxies = splitList(proxyFlag)
		case "session-ttl":
			cfg.SessionTTL = flags.SessionTTL
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("TRANSITMAP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSITMAP_PORT: %q", v)
		}
		cfg.Port = port
	}
	if v := getenv("TRANSITMAP_ENV"); v != "" {
		cfg.Env = EnvFlagToEnvironment(v)
	}
	if v := getenv("TRANSITMAP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("TRANSITMAP_DATA"); v != "" {
		cfg.DataSource = v
	}
	if v := getenv("TRANSITMAP_GTFS"); v != "" {
		cfg.GTFSSource = v
	}
	if v := getenv("TRANSITMAP_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSITMAP_RATE_LIMIT: %q", v)
		}
		cfg.RateLimit = limit
	}
	if v := getenv("TRANSITMAP_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getenv("TRANSITMAP_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
	if v := getenv("TRANSITMAP_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSITMAP_SESSION_TTL: %q", v)
		}
		cfg.SessionTTL = ttl
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field constraints.
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
