package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSource_FetchDecodesBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"records": [{"external_id": 1, "hash": "h1", "process_number": "123"}],
			"seed": {
				"processes": [{"id": "P1", "process_code": "123", "client_id": "C1"}],
				"clients": [{"id": "C1", "full_name": "JOAO DA SILVA"}]
			}
		}`))
	}))
	defer server.Close()

	source, err := NewHTTPSource("diario", server.URL, time.Second)
	require.NoError(t, err)

	records, seed, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "h1", records[0].Hash)
	require.Len(t, seed.Processes, 1)
	require.Equal(t, "P1", seed.Processes[0].ID)
	require.Len(t, seed.Clients, 1)
}

func TestHTTPSource_NonOKStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source, err := NewHTTPSource("diario", server.URL, time.Second)
	require.NoError(t, err)

	_, _, err = source.Fetch(context.Background())
	require.ErrorContains(t, err, "unexpected status")
}
