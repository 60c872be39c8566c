package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/hospitalrouter/backend/pkg/errors"
	"github.com/zatekoja/hospitalrouter/backend/pkg/utils"
)

const defaultFetchTimeout = 15 * time.Second

// Registry column names.
const (
	colName               = "hospital_name"
	colLatitude           = "latitude"
	colLongitude          = "longitude"
	colDiversion          = "ed_diversion_sim"
	colEDBeds             = "available_ed_beds_sim"
	colICUBeds            = "available_icu_beds_sim"
	colERWait             = "er_wait_min_sim"
	colPhysicians         = "on_call_ed_physicians_sim"
	colTraumaLevel        = "trauma_level"
	colStrokeLevel        = "stroke_center_level"
	colCathLab            = "cardiac_cath_lab"
	colPediatric          = "pediatric_specialty"
	colSimulatedTravel    = "ambulance_travel_time_min_sim"
	colSpecialistsPrefix  = "specialists_"
	colSpecialistPatients = "specialist_patients_"
)

// CSVRegistry loads hospitals from a CSV file or http(s) URL and keeps the
// parsed result for the lifetime of the process.
type CSVRegistry struct {
	source     string
	httpClient *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	cache []*entities.Hospital
}

// NewCSVRegistry creates a registry reading from source.
func NewCSVRegistry(source string) repositories.HospitalRegistry {
	return NewCSVRegistryWithClient(source, nil)
}

// NewCSVRegistryWithClient allows overriding the HTTP client (used for tests).
func NewCSVRegistryWithClient(source string, httpClient *http.Client) *CSVRegistry {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &CSVRegistry{
		source:     strings.TrimSpace(source),
		httpClient: httpClient,
	}
}

// Load returns the cached hospitals, fetching and parsing them on first use.
// Concurrent first calls share one fetch; failures are not cached. The shared
// fetch is detached from the caller that started it, so one cancelled request
// does not fail the others waiting on it.
func (r *CSVRegistry) Load(ctx context.Context) ([]*entities.Hospital, error) {
	r.mu.RLock()
	cached := r.cache
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	ch := r.group.DoChan(r.source, func() (interface{}, error) {
		r.mu.RLock()
		cached := r.cache
		r.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFetchTimeout)
		defer cancel()

		hospitals, err := r.fetchAndParse(fetchCtx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache = hospitals
		r.mu.Unlock()

		log.Info().
			Str("source", r.source).
			Int("hospitals", len(hospitals)).
			Msg("Hospital registry loaded")
		return hospitals, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*entities.Hospital), nil
	}
}

func (r *CSVRegistry) fetchAndParse(ctx context.Context) ([]*entities.Hospital, error) {
	body, err := r.open(ctx)
	if err != nil {
		return nil, apperrors.NewDataSourceError(fmt.Sprintf("failed to fetch hospital registry %s", r.source), err)
	}
	defer body.Close()

	hospitals, err := Parse(body)
	if err != nil {
		return nil, apperrors.NewDataSourceError(fmt.Sprintf("malformed hospital registry %s", r.source), err)
	}
	return hospitals, nil
}

func (r *CSVRegistry) open(ctx context.Context) (io.ReadCloser, error) {
	if r.source == "" {
		return nil, fmt.Errorf("registry source is not configured")
	}
	if !strings.HasPrefix(r.source, "http://") && !strings.HasPrefix(r.source, "https://") {
		return os.Open(r.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("registry request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Parse reads a registry CSV. The first row names the columns; short rows are
// padded with empty values and numeric cells that do not parse become zero.
// At least one data row is required.
func Parse(in io.Reader) ([]*entities.Hospital, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("expected a header and at least one data row, got %d rows", len(rows))
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	hospitals := make([]*entities.Hospital, 0, len(rows)-1)
	seen := make(map[string]int, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		record := toRecord(header, row)

		hospital := hospitalFromRecord(record)
		if hospital.Name == "" {
			log.Warn().Int("line", line).Msg("Skipping registry row without hospital_name")
			continue
		}
		if first, dup := seen[hospital.Name]; dup {
			log.Warn().
				Str("hospital", hospital.Name).
				Int("line", line).
				Int("first_line", first).
				Msg("Duplicate hospital name in registry; both rows share one capacity overlay")
		} else {
			seen[hospital.Name] = line
		}
		hospitals = append(hospitals, hospital)
	}

	if len(hospitals) == 0 {
		return nil, fmt.Errorf("registry has no usable hospital rows")
	}
	return hospitals, nil
}

func toRecord(header, row []string) map[string]string {
	record := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			record[name] = row[i]
		} else {
			record[name] = ""
		}
	}
	return record
}

func hospitalFromRecord(record map[string]string) *entities.Hospital {
	h := &entities.Hospital{
		Name: strings.TrimSpace(record[colName]),
		Location: entities.Location{
			Latitude:  utils.ParseFloatOrZero(record[colLatitude]),
			Longitude: utils.ParseFloatOrZero(record[colLongitude]),
		},
		EDDiversion:            strings.EqualFold(strings.TrimSpace(record[colDiversion]), "yes"),
		AvailableEDBeds:        utils.ParseIntOrZero(record[colEDBeds]),
		AvailableICUBeds:       utils.ParseIntOrZero(record[colICUBeds]),
		ERWaitMinutes:          utils.ParseFloatOrZero(record[colERWait]),
		OnCallEDPhysicians:     utils.ParseIntOrZero(record[colPhysicians]),
		TraumaLevel:            strings.TrimSpace(record[colTraumaLevel]),
		StrokeCenterLevel:      strings.TrimSpace(record[colStrokeLevel]),
		CardiacCathLab:         strings.TrimSpace(record[colCathLab]),
		PediatricSpecialty:     strings.TrimSpace(record[colPediatric]),
		SimulatedTravelMinutes: utils.ParseFloatOrZero(record[colSimulatedTravel]),
		Specialists:            make(map[entities.Specialty]entities.SpecialistStaffing, len(entities.TrackedSpecialties)),
	}
	for _, s := range entities.TrackedSpecialties {
		h.Specialists[s] = entities.SpecialistStaffing{
			Doctors:  utils.ParseIntOrZero(record[colSpecialistsPrefix+string(s)]),
			Patients: utils.ParseIntOrZero(record[colSpecialistPatients+string(s)]),
		}
	}
	return h
}
