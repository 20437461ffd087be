package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("ASSET_SYMBOL", "")
	t.Setenv("RELATED_MARKET_NAMES", "")
	t.Setenv("CHAIN_IDS", "")
	t.Setenv("SNAPSHOT_HOUR_UTC", "")
	t.Setenv("HISTORY_CACHE_SECS", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("unexpected redis default: %s", cfg.RedisURL)
	}
	if cfg.AssetSymbol != "sUSDe" {
		t.Fatalf("unexpected asset default: %s", cfg.AssetSymbol)
	}
	if !reflect.DeepEqual(cfg.ChainIDs, []int{1}) {
		t.Fatalf("unexpected chain default: %v", cfg.ChainIDs)
	}
	if !reflect.DeepEqual(cfg.RelatedMarketNames, []string{"ethena", "usde"}) {
		t.Fatalf("unexpected related names default: %v", cfg.RelatedMarketNames)
	}
	if cfg.SnapshotHourUTC != 0 || cfg.HistoryCacheSecs != 120 {
		t.Fatalf("unexpected numeric defaults: %d %d", cfg.SnapshotHourUTC, cfg.HistoryCacheSecs)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ASSET_SYMBOL", "weETH")
	t.Setenv("RELATED_MARKET_NAMES", "etherfi, eeth")
	t.Setenv("CHAIN_IDS", "1, 42161, junk, -5")
	t.Setenv("SNAPSHOT_HOUR_UTC", "6")
	t.Setenv("HISTORY_CACHE_SECS", "30")

	cfg := Load()
	if cfg.AssetSymbol != "weETH" {
		t.Fatalf("asset override ignored: %s", cfg.AssetSymbol)
	}
	if !reflect.DeepEqual(cfg.RelatedMarketNames, []string{"etherfi", "eeth"}) {
		t.Fatalf("unexpected related names: %v", cfg.RelatedMarketNames)
	}
	if !reflect.DeepEqual(cfg.ChainIDs, []int{1, 42161}) {
		t.Fatalf("invalid chain ids must be skipped: %v", cfg.ChainIDs)
	}
	if cfg.SnapshotHourUTC != 6 || cfg.HistoryCacheSecs != 30 {
		t.Fatalf("numeric overrides ignored: %d %d", cfg.SnapshotHourUTC, cfg.HistoryCacheSecs)
	}
}

func TestLoadRejectsOutOfRangeHour(t *testing.T) {
	t.Setenv("SNAPSHOT_HOUR_UTC", "24")
	if cfg := Load(); cfg.SnapshotHourUTC != 0 {
		t.Fatalf("out-of-range hour must fall back, got %d", cfg.SnapshotHourUTC)
	}
}
