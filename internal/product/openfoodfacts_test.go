// internal/product/openfoodfacts_test.go
package product

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-assistant/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, TimeoutSec: 2}, logger.NewTestLogger(t))
	return client, server
}

const productPayload = `{
	"status": 1,
	"product": {
		"product_name": "Yaourt nature",
		"brands": "Danone",
		"nutriments": {
			"proteins_100g": 4.5,
			"energy-kcal_100g": 61,
			"carbohydrates_100g": 4.8,
			"fat_100g": 3.2,
			"energy_unit": "kcal"
		}
	}
}`

// ==========================
// Lookup Tests
// ==========================

func TestClient_LookupByBarcode(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003.json", r.URL.Path)
		fmt.Fprint(w, productPayload)
	})

	estimate, err := client.LookupByBarcode(context.Background(), "3017620422003")
	require.NoError(t, err)
	require.NotNil(t, estimate)

	assert.Equal(t, []string{"Yaourt nature"}, estimate.DetectedFoods)
	assert.Equal(t, 4.5, estimate.EstimatedProtein)
	assert.Equal(t, 100.0, estimate.EstimatedWeightGrams)
	assert.Equal(t, "openfoodfacts", estimate.SourceHint)
	require.NotNil(t, estimate.EstimatedCalories)
	assert.Equal(t, 61.0, *estimate.EstimatedCalories)
	require.NotNil(t, estimate.EstimatedCarbs)
	assert.Equal(t, 4.8, *estimate.EstimatedCarbs)
	require.NotNil(t, estimate.EstimatedFat)
	assert.Equal(t, 3.2, *estimate.EstimatedFat)
	assert.Nil(t, estimate.EstimatedFiber)
}

func TestClient_LookupByBarcode_NotFound(t *testing.T) {
	t.Run("status zero payload", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": 0}`)
		})

		estimate, err := client.LookupByBarcode(context.Background(), "0000000000000")
		require.NoError(t, err)
		assert.Nil(t, estimate)
	})

	t.Run("http 404", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		estimate, err := client.LookupByBarcode(context.Background(), "0000000000000")
		require.NoError(t, err)
		assert.Nil(t, estimate)
	})
}

func TestClient_LookupByBarcode_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.LookupByBarcode(context.Background(), "3017620422003")
	assert.Error(t, err)
}

func TestClient_LookupByBarcode_CachesResults(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, productPayload)
	})

	ctx := context.Background()
	first, err := client.LookupByBarcode(ctx, "3017620422003")
	require.NoError(t, err)
	second, err := client.LookupByBarcode(ctx, "3017620422003")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.EstimatedProtein, second.EstimatedProtein)
}

// ==========================
// Payload Edge Cases
// ==========================

func TestClient_LookupByBarcode_NameFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		expectedName string
	}{
		{
			name:         "english name fallback",
			payload:      `{"status":1,"product":{"product_name_en":"Plain yogurt","nutriments":{}}}`,
			expectedName: "Plain yogurt",
		},
		{
			name:         "generic name fallback",
			payload:      `{"status":1,"product":{"generic_name":"Yaourt","nutriments":{}}}`,
			expectedName: "Yaourt",
		},
		{
			name:         "no name at all",
			payload:      `{"status":1,"product":{"nutriments":{}}}`,
			expectedName: "produit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.payload)
			})

			estimate, err := client.LookupByBarcode(context.Background(), "123456789")
			require.NoError(t, err)
			require.NotNil(t, estimate)
			assert.Equal(t, []string{tt.expectedName}, estimate.DetectedFoods)
		})
	}
}

func TestClient_LookupByBarcode_KilojouleConversion(t *testing.T) {
	payload := `{"status":1,"product":{"product_name":"Jus","nutriments":{"energy-kj_100g":418.4}}}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	estimate, err := client.LookupByBarcode(context.Background(), "123")
	require.NoError(t, err)
	require.NotNil(t, estimate.EstimatedCalories)
	assert.InDelta(t, 100, *estimate.EstimatedCalories, 0.01)
}

func TestClient_LookupByBarcode_ImplausibleValuesDropped(t *testing.T) {
	payload := `{"status":1,"product":{"product_name":"Bizarre","nutriments":{"proteins_100g":400,"energy-kcal_100g":-3}}}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	estimate, err := client.LookupByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 0.0, estimate.EstimatedProtein)
	assert.Nil(t, estimate.EstimatedCalories)
}

func TestClient_LookupByBarcode_StringNutriments(t *testing.T) {
	// Open Food Facts sometimes serializes nutriment values as strings.
	payload := `{"status":1,"product":{"product_name":"Fromage","nutriments":{"proteins_100g":"25.5"}}}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	estimate, err := client.LookupByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 25.5, estimate.EstimatedProtein)
}
