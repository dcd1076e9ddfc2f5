package fx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderFetchesRate(t *testing.T) {
	var gotPath, gotFrom, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		json.NewEncoder(w).Encode(ratesResponse{
			Base:  "USD",
			Date:  "2025-04-01",
			Rates: map[string]float64{"EUR": 0.91},
		})
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL+"/", 5*time.Second)
	rate, err := provider.GetRate(context.Background(), "USD", "EUR", rateDate(2025, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, "0.91", rate.String())
	assert.Equal(t, "/v1/2025-04-01", gotPath, "trailing slashes in the base URL do not double up")
	assert.Equal(t, "USD", gotFrom)
	assert.Equal(t, "EUR", gotTo)
}

func TestHTTPProviderClampsFutureDates(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(ratesResponse{Rates: map[string]float64{"EUR": 0.9}})
	}))
	defer srv.Close()

	// Statement periods often end in the future; no rate exists there yet.
	future := time.Now().Add(48 * time.Hour)
	provider := NewHTTPProvider(srv.URL, 5*time.Second)
	_, err := provider.GetRate(context.Background(), "USD", "EUR", future)
	require.NoError(t, err)
	assert.NotContains(t, gotPath, future.Format("2006-01-02"))
}

func TestHTTPProviderRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, 5*time.Second)
	_, err := provider.GetRate(context.Background(), "USD", "EUR", rateDate(2025, 4, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-OK status 404")
}

func TestHTTPProviderRequiresRequestedRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ratesResponse{Rates: map[string]float64{"CHF": 0.93}})
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, 5*time.Second)
	_, err := provider.GetRate(context.Background(), "USD", "EUR", rateDate(2025, 4, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rate for USD->EUR")
}

func TestHTTPProviderSurfacesDecodeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, 5*time.Second)
	_, err := provider.GetRate(context.Background(), "USD", "EUR", rateDate(2025, 4, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode FX rates response")
}
