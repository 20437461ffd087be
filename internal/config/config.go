package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL      string
	RedisURL         string
	TelegramBotToken string

	MarketAPIBase      string
	AssetSymbol        string
	RelatedMarketNames []string
	ChainIDs           []int

	SnapshotHourUTC  int
	HistoryCacheSecs int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		MarketAPIBase:    strings.TrimSpace(os.Getenv("MARKET_API_BASE")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.AssetSymbol = strings.TrimSpace(os.Getenv("ASSET_SYMBOL"))
	if cfg.AssetSymbol == "" {
		cfg.AssetSymbol = "sUSDe"
	}

	cfg.RelatedMarketNames = splitList(os.Getenv("RELATED_MARKET_NAMES"))
	if len(cfg.RelatedMarketNames) == 0 {
		cfg.RelatedMarketNames = []string{"ethena", "usde"}
	}

	cfg.ChainIDs = parseChainIDs(os.Getenv("CHAIN_IDS"))
	if len(cfg.ChainIDs) == 0 {
		cfg.ChainIDs = []int{1}
	}

	cfg.SnapshotHourUTC = 0
	if v := strings.TrimSpace(os.Getenv("SNAPSHOT_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.SnapshotHourUTC = n
		}
	}

	cfg.HistoryCacheSecs = 120
	if v := strings.TrimSpace(os.Getenv("HISTORY_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryCacheSecs = n
		}
	}

	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseChainIDs(raw string) []int {
	var out []int
	for _, part := range splitList(raw) {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			log.Printf("Warning: ignoring invalid chain id %q", part)
			continue
		}
		out = append(out, n)
	}
	return out
}
