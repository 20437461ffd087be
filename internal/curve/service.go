package curve

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"spreadwatch/internal/domain"
	"spreadwatch/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type MarketsFetcher interface {
	FetchActiveMarkets(ctx context.Context, chainID int) ([]provider.RawMarket, error)
}

type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snapshot domain.SpreadSnapshot) error
	GetHistory(ctx context.Context, maxDays int) ([]domain.SpreadSnapshot, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type Config struct {
	AssetSymbol     string
	RelatedNames    []string
	ChainIDs        []int
	HistoryCacheTTL time.Duration
}

// Service runs the fetch -> normalize -> compute -> persist pipeline and
// serves the accumulated series.
type Service struct {
	tracer  trace.Tracer
	fetcher MarketsFetcher
	store   SnapshotStore
	redis   RedisClient
	cfg     Config
}

func NewService(tracer trace.Tracer, fetcher MarketsFetcher, store SnapshotStore, redisClient RedisClient, cfg Config) *Service {
	if cfg.AssetSymbol == "" {
		cfg.AssetSymbol = "sUSDe"
	}
	if len(cfg.ChainIDs) == 0 {
		cfg.ChainIDs = []int{1}
	}
	if cfg.HistoryCacheTTL <= 0 {
		cfg.HistoryCacheTTL = 2 * time.Minute
	}
	return &Service{
		tracer:  tracer,
		fetcher: fetcher,
		store:   store,
		redis:   redisClient,
		cfg:     cfg,
	}
}

// RunDaily performs one snapshot pass for the given clock value. Chains are
// fetched concurrently; a failed chain contributes zero markets and a warning
// instead of aborting the pass. Fewer than two live maturities is an
// informational outcome, not an error; only a store failure is terminal.
func (s *Service) RunDaily(ctx context.Context, now time.Time) (domain.SnapshotRunResult, error) {
	ctx, span := s.tracer.Start(ctx, "curve.run-daily")
	defer span.End()

	if s.fetcher == nil || s.store == nil {
		return domain.SnapshotRunResult{}, fmt.Errorf("curve service dependencies are not initialized")
	}

	raw, warnings := s.fetchAllChains(ctx)
	candidates := Normalize(raw, s.cfg.AssetSymbol, s.cfg.RelatedNames)
	computed := ComputeSpread(candidates, now)

	result := domain.SnapshotRunResult{
		Reason:   computed.Reason,
		Snapshot: computed.Snapshot,
		Warnings: warnings,
	}

	if computed.Snapshot == nil {
		log.Printf("Snapshot pass for %s: %s (candidates=%d warnings=%d)",
			s.cfg.AssetSymbol, computed.Reason, len(candidates), len(warnings))
		return result, nil
	}

	if err := s.store.UpsertSnapshot(ctx, *computed.Snapshot); err != nil {
		return result, err
	}
	result.Computed = true

	log.Printf("Snapshot stored for %s date=%s spread=%.4f markets=%d warnings=%d",
		s.cfg.AssetSymbol, computed.Snapshot.Date, computed.Snapshot.TermSpread,
		computed.Snapshot.MarketsCount, len(warnings))
	return result, nil
}

// fetchAllChains fans out one fetch per configured chain and joins on all of
// them. Results keep chain-configuration order so downstream tie-breaks stay
// deterministic.
func (s *Service) fetchAllChains(ctx context.Context) ([]provider.RawMarket, []string) {
	_, span := s.tracer.Start(ctx, "curve.fetch-all-chains")
	defer span.End()

	perChain := make([][]provider.RawMarket, len(s.cfg.ChainIDs))
	errs := make([]error, len(s.cfg.ChainIDs))

	var wg sync.WaitGroup
	for i, chainID := range s.cfg.ChainIDs {
		wg.Add(1)
		go func(i, chainID int) {
			defer wg.Done()
			markets, err := s.fetcher.FetchActiveMarkets(ctx, chainID)
			if err != nil {
				errs[i] = err
				return
			}
			perChain[i] = markets
		}(i, chainID)
	}
	wg.Wait()

	var raw []provider.RawMarket
	var warnings []string
	for i, chainID := range s.cfg.ChainIDs {
		if errs[i] != nil {
			warnings = append(warnings, fmt.Sprintf("chain %d: %v", chainID, errs[i]))
			log.Printf("Market fetch failed for chain %d: %v", chainID, errs[i])
			continue
		}
		raw = append(raw, perChain[i]...)
	}
	return raw, warnings
}

// History returns up to days snapshots in ascending date order, serving from
// the Redis cache when it is warm.
func (s *Service) History(ctx context.Context, days int) ([]domain.SpreadSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "curve.history")
	defer span.End()

	key := fmt.Sprintf("history:%d", days)
	if s.redis != nil {
		if cached, err := s.getHistoryCache(ctx, key); err != nil {
			log.Printf("redis cache read error: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	snapshots, err := s.store.GetHistory(ctx, days)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setHistoryCache(ctx, key, snapshots); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	return snapshots, nil
}

// Latest returns the most recent stored snapshot, or nil when the series is
// empty.
func (s *Service) Latest(ctx context.Context) (*domain.SpreadSnapshot, error) {
	snapshots, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (s *Service) setHistoryCache(ctx context.Context, key string, snapshots []domain.SpreadSnapshot) error {
	data, err := json.Marshal(snapshots)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, s.cfg.HistoryCacheTTL).Err()
}

func (s *Service) getHistoryCache(ctx context.Context, key string) ([]domain.SpreadSnapshot, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snapshots []domain.SpreadSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
