package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

type recommendationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// RecommenderService ranks learning resources against a free-text topic using
// TF-IDF weighted cosine similarity over the resource corpus. The model is
// trained in memory and swapped atomically so retraining never blocks reads.
type RecommenderService struct {
	cfg      config.RecommenderConfig
	cache    recommendationCache
	cacheCfg config.CacheConfig
	logger   *zap.Logger

	mu    sync.RWMutex
	model *tfidfModel
}

type tfidfModel struct {
	resources []models.LearningResource
	vectors   []map[string]float64
	norms     []float64
	idf       map[string]float64
}

// NewRecommenderService constructs an untrained recommender. Call Train before
// Recommend, otherwise requests fail with a model-not-trained error. The cache
// is optional; without one, every query is ranked from scratch.
func NewRecommenderService(cfg config.RecommenderConfig, cache recommendationCache, cacheCfg config.CacheConfig, logger *zap.Logger) *RecommenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &RecommenderService{cfg: cfg, cache: cache, cacheCfg: cacheCfg, logger: logger}
}

// Train builds the TF-IDF index over the given corpus and swaps it in.
func (s *RecommenderService) Train(ctx context.Context, resources []models.LearningResource) error {
	if len(resources) == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot train recommender on empty corpus")
	}

	docs := make([][]string, len(resources))
	df := make(map[string]int)
	for i, resource := range resources {
		terms := tokenize(resourceText(resource))
		docs[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := float64(len(resources))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		// Smoothed IDF keeps terms present in every document from zeroing out.
		idf[term] = math.Log(n/float64(count)) + 1
	}

	model := &tfidfModel{
		resources: resources,
		vectors:   make([]map[string]float64, len(resources)),
		norms:     make([]float64, len(resources)),
		idf:       idf,
	}
	for i, terms := range docs {
		vec := termFrequencies(terms)
		var norm float64
		for term, tf := range vec {
			weight := tf * idf[term]
			vec[term] = weight
			norm += weight * weight
		}
		model.vectors[i] = vec
		model.norms[i] = math.Sqrt(norm)
	}

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	if s.cacheEnabled() {
		if err := s.cache.DeleteByPattern(ctx, "recommendations:*"); err != nil {
			s.logger.Warn("failed to invalidate recommendation cache", zap.Error(err))
		}
	}

	s.logger.Info("recommender trained",
		zap.Int("resources", len(resources)),
		zap.Int("vocabulary", len(idf)),
	)
	return nil
}

// Trained reports whether a model is available to serve queries.
func (s *RecommenderService) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

// Recommend returns the closest resources for the query topic, best first.
// Results under the configured confidence floor are dropped; an optional type
// filter restricts candidates before ranking.
func (s *RecommenderService) Recommend(ctx context.Context, query dto.RecommendationQuery) ([]dto.Recommendation, error) {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()
	if model == nil {
		return nil, appErrors.ErrNotTrained
	}

	terms := tokenize(query.Topic)
	if len(terms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topic must contain at least one searchable term")
	}

	topK := query.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	cacheKey := fmt.Sprintf("recommendations:%s:%d:%s", strings.Join(terms, "-"), topK, query.Type)
	if s.cacheEnabled() {
		var cached []dto.Recommendation
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	queryVec := termFrequencies(terms)
	var queryNorm float64
	for term, tf := range queryVec {
		weight := tf * model.idf[term]
		queryVec[term] = weight
		queryNorm += weight * weight
	}
	queryNorm = math.Sqrt(queryNorm)
	if queryNorm == 0 {
		return []dto.Recommendation{}, nil
	}

	type scored struct {
		index int
		score float64
	}
	candidates := make([]scored, 0, len(model.resources))
	for i, resource := range model.resources {
		if query.Type != "" && string(resource.Type) != query.Type {
			continue
		}
		score := cosine(queryVec, queryNorm, model.vectors[i], model.norms[i])
		if score < s.cfg.MinConfidence || score == 0 {
			continue
		}
		candidates = append(candidates, scored{index: i, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]dto.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		resource := model.resources[c.index]
		rec := dto.Recommendation{
			ResourceID: resource.ID,
			Title:      resource.Title,
			Type:       string(resource.Type),
			Confidence: round3(c.score),
		}
		if resource.URL != nil {
			rec.URL = *resource.URL
		}
		results = append(results, rec)
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, results, s.cacheCfg.RecommendationTTL); err != nil {
			s.logger.Warn("failed to cache recommendations", zap.Error(err))
		}
	}
	return results, nil
}

func (s *RecommenderService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

// ConfidenceByResource scores every corpus resource against the topic, keyed
// by resource ID. The optimizer's confidence strategy consumes this map.
func (s *RecommenderService) ConfidenceByResource(ctx context.Context, topic string) (map[string]float64, error) {
	s.mu.RLock()
	model := s.model
	s.mu.RUnlock()
	if model == nil {
		return nil, appErrors.ErrNotTrained
	}

	terms := tokenize(topic)
	queryVec := termFrequencies(terms)
	var queryNorm float64
	for term, tf := range queryVec {
		weight := tf * model.idf[term]
		queryVec[term] = weight
		queryNorm += weight * weight
	}
	queryNorm = math.Sqrt(queryNorm)

	scores := make(map[string]float64, len(model.resources))
	for i, resource := range model.resources {
		scores[resource.ID] = cosine(queryVec, queryNorm, model.vectors[i], model.norms[i])
	}
	return scores, nil
}

func resourceText(resource models.LearningResource) string {
	parts := []string{resource.Title, string(resource.Type)}
	if resource.Description != nil {
		parts = append(parts, *resource.Description)
	}
	if resource.Tags != nil {
		parts = append(parts, *resource.Tags)
	}
	return strings.Join(parts, " ")
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 || stopwords[field] {
			continue
		}
		terms = append(terms, field)
	}
	return terms
}

func termFrequencies(terms []string) map[string]float64 {
	if len(terms) == 0 {
		return map[string]float64{}
	}
	counts := make(map[string]float64, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	total := float64(len(terms))
	for term := range counts {
		counts[term] /= total
	}
	return counts
}

func cosine(a map[string]float64, normA float64, b map[string]float64, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, weight := range a {
		dot += weight * b[term]
	}
	return dot / (normA * normB)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "how": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "with": true, "you": true, "your": true,
}
