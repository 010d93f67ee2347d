package service_test

import (
	"context"
	"testing"

	"tiendapos/internal/model"
	"tiendapos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFrequentPairs_CountsBothDirections(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	rows := service.FrequentPairs([][]uuid.UUID{{a, b}, {a, b, c}, {b, a, a}})

	scores := map[[2]uuid.UUID]float64{}
	for _, r := range rows {
		assert.Equal(t, model.RecommendationFrequentlyBought, r.RecommendationType)
		scores[[2]uuid.UUID{r.SourceProductID, r.RecommendedProductID}] = r.Score
	}
	assert.Len(t, rows, 6)
	assert.Equal(t, 3.0, scores[[2]uuid.UUID{a, b}])
	assert.Equal(t, 3.0, scores[[2]uuid.UUID{b, a}])
	assert.Equal(t, 1.0, scores[[2]uuid.UUID{a, c}])
	assert.Equal(t, 1.0, scores[[2]uuid.UUID{c, b}])
}

func TestFrequentPairs_SingleItemBasketsIgnored(t *testing.T) {
	assert.Empty(t, service.FrequentPairs([][]uuid.UUID{{uuid.New()}, {}}))
}

func TestContentSimilarity_ThresholdAndSelf(t *testing.T) {
	lacteos := &model.Category{ID: uuid.New(), Name: "Lacteos"}
	products := []model.Product{
		{ID: uuid.New(), Name: "Leche entera", Description: strPtr("Leche de vaca"), Category: lacteos},
		{ID: uuid.New(), Name: "Leche descremada", Description: strPtr("Leche de vaca light"), Category: lacteos},
		{ID: uuid.New(), Name: "Detergente", Description: strPtr("Limpieza de ropa")},
	}

	rows := service.ContentSimilarity(products, 0.2, 5)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEqual(t, r.SourceProductID, r.RecommendedProductID)
		assert.NotEqual(t, products[2].ID, r.SourceProductID)
		assert.NotEqual(t, products[2].ID, r.RecommendedProductID)
		assert.Greater(t, r.Score, 0.2)
		assert.Equal(t, model.RecommendationContent, r.RecommendationType)
	}
}

func TestContentSimilarity_KeepsTopN(t *testing.T) {
	var products []model.Product
	for i := 0; i < 8; i++ {
		products = append(products, model.Product{ID: uuid.New(), Name: "Galleta chocolate"})
	}
	rows := service.ContentSimilarity(products, 0.2, 5)
	perSource := map[uuid.UUID]int{}
	for _, r := range rows {
		perSource[r.SourceProductID]++
	}
	for _, n := range perSource {
		assert.Equal(t, 5, n)
	}
}

type recoFixture struct {
	svc      service.RecommendationService
	repo     *stubRecommendationRepo
	sales    *stubSaleRepo
	products *stubProductRepo
	cache    *memCache
}

func newRecoFixture() *recoFixture {
	f := &recoFixture{
		repo:     newStubRecommendationRepo(),
		sales:    newStubSaleRepo(),
		products: newStubProductRepo(),
		cache:    newMemCache(),
	}
	f.svc = service.NewRecommendationService(f.repo, f.sales, f.products, f.cache, 0)
	return f
}

func (f *recoFixture) sell(ids ...uuid.UUID) {
	s := &model.Sale{ID: uuid.New()}
	for _, id := range ids {
		s.Details = append(s.Details, model.SaleDetail{ID: uuid.New(), ProductID: id, Quantity: 1})
	}
	f.sales.sales[s.ID] = s
}

func TestTopRecommendations_FrequentFirstThenContent(t *testing.T) {
	f := newRecoFixture()
	cafe := seedProduct(f.products, "Cafe molido", 5, 30)
	azucar := seedProduct(f.products, "Azucar", 5, 10)
	cafeGrano := seedProduct(f.products, "Cafe grano", 5, 40)
	inactive := seedProduct(f.products, "Filtro", 5, 5)
	inactive.IsActive = false

	f.sell(cafe.ID, azucar.ID)
	f.sell(cafe.ID, azucar.ID, inactive.ID)

	rebuilt, err := f.svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, rebuilt.FrequentPairs)
	assert.Positive(t, rebuilt.ContentPairs)

	resp, err := f.svc.Top(context.Background(), cafe.ID, 4)
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, azucar.ID.String(), resp.Products[0].ID)
	assert.Equal(t, cafeGrano.ID.String(), resp.Products[1].ID)
	for _, p := range resp.Products {
		assert.NotEqual(t, cafe.ID.String(), p.ID)
		assert.NotEqual(t, inactive.ID.String(), p.ID)
	}
	assert.True(t, f.cache.has("reco:"+cafe.ID.String()+":4"))
}

func TestTopRecommendations_RebuildDropsCache(t *testing.T) {
	f := newRecoFixture()
	p := seedProduct(f.products, "Cafe molido", 5, 30)
	_, err := f.svc.Top(context.Background(), p.ID, 0)
	require.NoError(t, err)
	require.True(t, f.cache.has("reco:"+p.ID.String()+":4"))

	_, err = f.svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.False(t, f.cache.has("reco:"+p.ID.String()+":4"))
}

func TestTopRecommendations_UnknownProduct(t *testing.T) {
	f := newRecoFixture()
	_, err := f.svc.Top(context.Background(), uuid.New(), 4)
	require.Error(t, err)
}
