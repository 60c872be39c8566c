package traveltime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/providers"
)

const (
	googleDistanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	defaultRequestTimeout   = 10 * time.Second
	statusOK                = "OK"
)

// GoogleDistanceMatrixProvider estimates ambulance travel times with one
// Distance Matrix request per selection.
type GoogleDistanceMatrixProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewGoogleDistanceMatrixProvider creates a new Distance Matrix provider.
func NewGoogleDistanceMatrixProvider(apiKey string, timeout time.Duration) providers.TravelTimeProvider {
	return NewGoogleDistanceMatrixProviderWithOptions(apiKey, timeout, googleDistanceMatrixURL, nil)
}

// NewGoogleDistanceMatrixProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleDistanceMatrixProviderWithOptions(apiKey string, timeout time.Duration, baseURL string, httpClient *http.Client) *GoogleDistanceMatrixProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleDistanceMatrixURL
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GoogleDistanceMatrixProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

// EstimateTravelTimes returns minutes from origin to each hospital, keyed by
// hospital ID. Elements the API could not route are reported as
// providers.UnreachableTravelMinutes. Any request-level failure returns an
// error and no partial result.
func (g *GoogleDistanceMatrixProvider) EstimateTravelTimes(ctx context.Context, origin entities.Location, hospitals []*entities.Hospital) (map[string]float64, error) {
	if len(hospitals) == 0 {
		return map[string]float64{}, nil
	}
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	destinations := make([]string, len(hospitals))
	for i, h := range hospitals {
		destinations[i] = formatLatLng(h.Location)
	}

	params := url.Values{}
	params.Set("origins", formatLatLng(origin))
	params.Set("destinations", strings.Join(destinations, "|"))
	params.Set("departure_time", "now")
	params.Set("key", g.apiKey)

	payload, err := g.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("distance matrix request failed: %s - %s", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("distance matrix request failed: %s", payload.Status)
	}

	var elements []distanceMatrixElement
	if len(payload.Rows) > 0 {
		elements = payload.Rows[0].Elements
	}

	etas := make(map[string]float64, len(hospitals))
	for i, h := range hospitals {
		etas[h.ID()] = providers.UnreachableTravelMinutes
		if i >= len(elements) || elements[i].Status != statusOK {
			continue
		}
		if d := elements[i].bestDuration(); d != nil {
			etas[h.ID()] = d.Value / 60
		}
	}
	return etas, nil
}

func (g *GoogleDistanceMatrixProvider) doRequest(ctx context.Context, params url.Values) (*distanceMatrixResponse, error) {
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build distance matrix request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("distance matrix request returned status %d", resp.StatusCode)
	}

	var payload distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode distance matrix response: %w", err)
	}
	return &payload, nil
}

func formatLatLng(loc entities.Location) string {
	return fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude)
}

type distanceMatrixResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Rows         []distanceMatrixRow `json:"rows"`
}

type distanceMatrixRow struct {
	Elements []distanceMatrixElement `json:"elements"`
}

type distanceMatrixElement struct {
	Status            string        `json:"status"`
	Duration          *textualValue `json:"duration,omitempty"`
	DurationInTraffic *textualValue `json:"duration_in_traffic,omitempty"`
}

// bestDuration prefers the traffic-aware duration when the API returned one.
func (e distanceMatrixElement) bestDuration() *textualValue {
	if e.DurationInTraffic != nil {
		return e.DurationInTraffic
	}
	return e.Duration
}

type textualValue struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}
