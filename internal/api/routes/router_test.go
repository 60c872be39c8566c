package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/overlay"
	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/registry"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/handlers"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/middleware"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/routes"
	"github.com/zatekoja/hospitalrouter/backend/internal/application/services"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
)

const testCSV = `hospital_name,latitude,longitude,ed_diversion_sim,available_ed_beds_sim,available_icu_beds_sim,er_wait_min_sim,on_call_ed_physicians_sim,trauma_level,stroke_center_level,cardiac_cath_lab,pediatric_specialty,ambulance_travel_time_min_sim,specialists_Cardiology,specialist_patients_Cardiology,specialists_Trauma,specialist_patients_Trauma,specialists_Neurology,specialist_patients_Neurology
General East,30.28,-97.70,No,6,3,25,4,N/A,None,No,No,9,1,1,0,0,1,0
Level One Central,30.27,-97.74,No,8,1,15,6,Level I,Comprehensive,Yes,No,12,2,4,3,3,2,1
`

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	path := t.TempDir() + "/hospitals.csv"
	require.NoError(t, writeFile(path, testCSV))

	store := overlay.NewMemoryStore()
	selection := services.NewSelectionService(registry.NewCSVRegistry(path), store, nil)
	dispatch := services.NewDispatchService(store)

	router := routes.NewRouter(
		handlers.NewHospitalHandler(selection),
		handlers.NewRoutingHandler(selection, dispatch),
		nil,
		[]string{"*"},
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_Health(t *testing.T) {
	server := newServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_SelectDispatchExhaustsICU(t *testing.T) {
	server := newServer(t)
	body := `{"acuity_level": 1, "required_specialty": "Trauma", "latitude": 30.27, "longitude": -97.74, "dispatch": true}`

	first := postSelect(t, server.URL, body)
	require.NotNil(t, first.Hospital)
	assert.Equal(t, "Level One Central", first.Hospital.HospitalID)
	require.NotNil(t, first.Dispatch)

	// The only trauma center had one ICU bed and the critical dispatch took it.
	second := postSelect(t, server.URL, body)
	assert.Nil(t, second.Hospital)
	assert.Equal(t, "no eligible hospital", second.Reason)

	resp, err := http.Get(server.URL + "/api/hospitals/Level%20One%20Central/capacity")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var capacity entities.HospitalCapacity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&capacity))
	assert.Equal(t, 0, capacity.EffectiveICUBeds)
	assert.Equal(t, 7, capacity.EffectiveEDBeds)
	require.NotNil(t, capacity.SpecialistLoads[entities.SpecialtyTrauma])
	assert.InDelta(t, 4.0/3.0, *capacity.SpecialistLoads[entities.SpecialtyTrauma], 0.01)
}

func postSelect(t *testing.T, baseURL, body string) handlers.SelectResponse {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/routing/select", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.SelectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_UnknownMethod(t *testing.T) {
	server := newServer(t)

	resp, err := http.Get(server.URL + "/api/routing/select")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func TestRouter_CacheHitsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&logs)
	t.Cleanup(func() { log.Logger = previous })

	path := t.TempDir() + "/hospitals.csv"
	require.NoError(t, writeFile(path, testCSV))
	store := overlay.NewMemoryStore()
	selection := services.NewSelectionService(registry.NewCSVRegistry(path), store, nil)
	cache := &memoryCache{entries: make(map[string][]byte)}

	handler := routes.NewRouter(
		handlers.NewHospitalHandler(selection),
		handlers.NewRoutingHandler(selection, services.NewDispatchService(store)),
		middleware.NewCacheMiddleware(cache, middleware.DefaultCacheRoutes, nil),
		[]string{"*"},
		nil,
	).SetupRoutes()

	for _, want := range []string{"MISS", "HIT"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hospitals", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Header().Get("X-Cache"))
	}

	assert.Equal(t, 2, strings.Count(logs.String(), `"message":"HTTP request"`))
}
