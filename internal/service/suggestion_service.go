package service

import (
	"context"
	"encoding/json"
	"time"

	"dalia-manager/internal/models"
	"dalia-manager/internal/redisclient"
	"dalia-manager/internal/store"
	"dalia-manager/internal/util"

	"go.uber.org/zap"
)

const defaultSuggestionLimit = 10

// SuggestionService produces advisory restock lists for a reseller from her
// recent sales history. Results are cached; the feature degrades to an empty
// list instead of failing a request.
type SuggestionService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger

	windowDays int
	cacheTTL   time.Duration
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(store *store.Store, redis *redisclient.Client, windowDays int, cacheTTL time.Duration) *SuggestionService {
	return &SuggestionService{
		store:      store,
		redis:      redis,
		logger:     util.GetLogger(),
		windowDays: windowDays,
		cacheTTL:   cacheTTL,
	}
}

// Suggest ranks the reseller's best-selling items that still have available
// stock, most frequent first, ties broken by most recent sale
func (s *SuggestionService) Suggest(ctx context.Context, sellerID string, limit int) ([]models.StockingSuggestion, error) {
	ctx, span := util.StartSpan(ctx, "SuggestionService.Suggest")
	defer span.End()

	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	if _, err := s.store.GetReseller(ctx, sellerID); err != nil {
		return nil, err
	}

	if cached, err := s.redis.GetCachedSuggestions(ctx, sellerID); err == nil {
		var suggestions []models.StockingSuggestion
		if err := json.Unmarshal(cached, &suggestions); err == nil {
			util.SuggestionCacheHits.WithLabelValues("hit").Inc()
			if len(suggestions) > limit {
				suggestions = suggestions[:limit]
			}
			return suggestions, nil
		}
		s.logger.Warn("Discarding corrupt suggestion cache entry",
			zap.String("seller_id", sellerID), zap.Error(err))
	} else if !redisclient.IsCacheMiss(err) {
		s.logger.Warn("Suggestion cache lookup failed",
			zap.String("seller_id", sellerID), zap.Error(err))
	}
	util.SuggestionCacheHits.WithLabelValues("miss").Inc()

	since := time.Now().AddDate(0, 0, -s.windowDays)
	suggestions, err := s.store.TopSoldItems(ctx, sellerID, since, limit)
	if err != nil {
		// Advisory feature: log and return an empty list rather than
		// failing the dashboard.
		s.logger.Error("Failed to compute stocking suggestions",
			zap.String("seller_id", sellerID), zap.Error(err))
		return []models.StockingSuggestion{}, nil
	}
	if suggestions == nil {
		suggestions = []models.StockingSuggestion{}
	}

	if payload, err := json.Marshal(suggestions); err == nil {
		if err := s.redis.CacheSuggestions(ctx, sellerID, payload, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache suggestions",
				zap.String("seller_id", sellerID), zap.Error(err))
		}
	}

	return suggestions, nil
}
