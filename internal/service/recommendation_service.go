package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	DefaultRecommendationLimit = 4
	contentSimilarityThreshold = 0.2
	contentTopN                = 5
)

type RecommendationService interface {
	Rebuild(ctx context.Context) (*dto.RebuildRecommendationsResponse, error)
	Top(ctx context.Context, productID uuid.UUID, limit int) (*dto.RecommendationResponse, error)
}

type recommendationService struct {
	repo     repository.RecommendationRepository
	sales    repository.SaleRepository
	products repository.ProductRepository
	cache    infra.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewRecommendationService(
	repo repository.RecommendationRepository,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	cache infra.Cache,
	cacheTTL time.Duration,
) RecommendationService {
	return &recommendationService{
		repo:     repo,
		sales:    sales,
		products: products,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Rebuild recomputes both recommendation types and swaps them in within one
// transaction, then drops every cached recommendation list.
func (s *recommendationService) Rebuild(ctx context.Context) (*dto.RebuildRecommendationsResponse, error) {
	baskets, err := s.sales.Baskets(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.products.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	frequent := FrequentPairs(baskets)
	content := ContentSimilarity(active, contentSimilarityThreshold, contentTopN)

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.ReplaceTypeTx(tx, model.RecommendationFrequentlyBought, frequent); err != nil {
			return err
		}
		return s.repo.ReplaceTypeTx(tx, model.RecommendationContent, content)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeletePrefix(ctx, recommendationKeyPrefix); err != nil {
			log.Warn().Err(err).Msg("recommendation cache invalidation failed")
		}
	}
	log.Info().Int("frequent", len(frequent)).Int("content", len(content)).Msg("recommendations rebuilt")
	return &dto.RebuildRecommendationsResponse{FrequentPairs: len(frequent), ContentPairs: len(content)}, nil
}

// Top returns up to limit active products: frequently-bought first, then
// content-based, without duplicates and never the product itself.
func (s *recommendationService) Top(ctx context.Context, productID uuid.UUID, limit int) (*dto.RecommendationResponse, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	key := fmt.Sprintf("%s%s:%d", recommendationKeyPrefix, productID, limit)
	if s.cache != nil {
		var cached dto.RecommendationResponse
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "Producto")
	}

	frequent, err := s.repo.TopFor(ctx, productID, model.RecommendationFrequentlyBought, limit)
	if err != nil {
		return nil, err
	}
	var ordered []uuid.UUID
	seen := map[uuid.UUID]bool{productID: true}
	collect := func(rows []model.ProductRecommendation) {
		for _, r := range rows {
			if !seen[r.RecommendedProductID] {
				seen[r.RecommendedProductID] = true
				ordered = append(ordered, r.RecommendedProductID)
			}
		}
	}
	collect(frequent)
	if len(ordered) < limit {
		// Over-fetch: some content matches may duplicate frequent ones.
		content, err := s.repo.TopFor(ctx, productID, model.RecommendationContent, limit+len(ordered))
		if err != nil {
			return nil, err
		}
		collect(content)
	}

	resp := &dto.RecommendationResponse{ProductID: productID.String(), Products: []dto.CatalogProductResponse{}}
	if len(ordered) > 0 {
		rows, err := s.products.FindByIDs(ctx, ordered)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]*model.Product, len(rows))
		for i := range rows {
			byID[rows[i].ID] = &rows[i]
		}
		now := s.now()
		for _, id := range ordered {
			p, ok := byID[id]
			if !ok || !p.IsActive {
				continue
			}
			resp.Products = append(resp.Products, productToCatalog(p, now))
			if len(resp.Products) == limit {
				break
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("recommendation cache write failed")
		}
	}
	return resp, nil
}

// ── Scoring ───────────────────────────────────────────────────────────────────

type productPair struct{ a, b uuid.UUID }

// FrequentPairs counts how many baskets contain each unordered pair of
// products and emits the count in both directions.
func FrequentPairs(baskets [][]uuid.UUID) []model.ProductRecommendation {
	counts := make(map[productPair]int)
	for _, basket := range baskets {
		items := dedupeSorted(basket)
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				counts[productPair{items[i], items[j]}]++
			}
		}
	}

	pairs := make([]productPair, 0, len(counts))
	for p := range counts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a.String() < pairs[j].a.String()
		}
		return pairs[i].b.String() < pairs[j].b.String()
	})

	out := make([]model.ProductRecommendation, 0, 2*len(pairs))
	for _, p := range pairs {
		score := float64(counts[p])
		out = append(out,
			model.ProductRecommendation{
				ID: uuid.New(), SourceProductID: p.a, RecommendedProductID: p.b,
				Score: score, RecommendationType: model.RecommendationFrequentlyBought,
			},
			model.ProductRecommendation{
				ID: uuid.New(), SourceProductID: p.b, RecommendedProductID: p.a,
				Score: score, RecommendationType: model.RecommendationFrequentlyBought,
			},
		)
	}
	return out
}

// ContentSimilarity scores every pair of products by the Jaccard overlap of
// their name, description and category tokens, keeping for each product the
// topN matches strictly above threshold.
func ContentSimilarity(products []model.Product, threshold float64, topN int) []model.ProductRecommendation {
	tokens := make([]map[string]struct{}, len(products))
	for i := range products {
		tokens[i] = productTokens(&products[i])
	}

	type scored struct {
		idx   int
		score float64
	}
	var out []model.ProductRecommendation
	for i := range products {
		var matches []scored
		for j := range products {
			if i == j {
				continue
			}
			if sc := jaccard(tokens[i], tokens[j]); sc > threshold {
				matches = append(matches, scored{j, sc})
			}
		}
		sort.SliceStable(matches, func(a, b int) bool { return matches[a].score > matches[b].score })
		if len(matches) > topN {
			matches = matches[:topN]
		}
		for _, m := range matches {
			out = append(out, model.ProductRecommendation{
				ID:                   uuid.New(),
				SourceProductID:      products[i].ID,
				RecommendedProductID: products[m.idx].ID,
				Score:                m.score,
				RecommendationType:   model.RecommendationContent,
			})
		}
	}
	return out
}

var stopwords = map[string]struct{}{
	"de": {}, "la": {}, "el": {}, "los": {}, "las": {}, "con": {}, "sin": {}, "para": {},
	"por": {}, "del": {}, "una": {}, "uno": {}, "the": {}, "and": {}, "with": {}, "for": {},
}

func productTokens(p *model.Product) map[string]struct{} {
	text := p.Name
	if p.Description != nil {
		text += " " + *p.Description
	}
	if p.Category != nil {
		text += " " + p.Category.Name
	}
	return tokenize(text)
}

// tokenize lower-cases text and splits it on anything that is not a letter or
// digit. Single characters and stopwords are dropped.
func tokenize(text string) map[string]struct{} {
	out := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
