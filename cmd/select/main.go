// Command select picks the best hospital for one triage assessment and prints
// the result as JSON, or null when no hospital is eligible.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/overlay"
	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/providers/traveltime"
	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/registry"
	"github.com/zatekoja/hospitalrouter/backend/internal/application/services"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/providers"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/observability"
	"github.com/zatekoja/hospitalrouter/backend/pkg/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "select: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	dataset    string
	latitude   float64
	longitude  float64
	assessment string
	dispatch   bool
}

func parseFlags(args []string, defaultDataset string) (*options, error) {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.dataset, "dataset", defaultDataset, "hospital CSV path or http(s) URL")
	fs.Float64Var(&opts.latitude, "lat", 0, "patient latitude")
	fs.Float64Var(&opts.longitude, "lon", 0, "patient longitude")
	fs.StringVar(&opts.assessment, "assessment", "-", "triage assessment JSON file, or - for stdin")
	fs.BoolVar(&opts.dispatch, "dispatch", false, "record a dispatch to the selected hospital")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	if !seen["lat"] || !seen["lon"] {
		return nil, errors.New("-lat and -lon are required")
	}
	return opts, nil
}

func readAssessment(path string, stdin io.Reader) (entities.TriageAssessment, error) {
	var assessment entities.TriageAssessment

	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return assessment, fmt.Errorf("failed to open assessment: %w", err)
		}
		defer f.Close()
		in = f
	}

	if err := json.NewDecoder(in).Decode(&assessment); err != nil {
		return assessment, fmt.Errorf("failed to decode assessment: %w", err)
	}
	return assessment, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.InitLoggerWithWriter("hospital-router-select", cfg.Server.Env, os.Stderr)
	logger := observability.GetLogger()

	opts, err := parseFlags(args, cfg.Registry.Source)
	if err != nil {
		return err
	}
	assessment, err := readAssessment(opts.assessment, stdin)
	if err != nil {
		return err
	}

	// A one-shot process only shares dispatches with other runs through Redis.
	var store repositories.CapacityOverlayStore = overlay.NewMemoryStore()
	if cfg.Overlay.Backend == config.OverlayBackendRedis {
		client, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis overlay backend unavailable: %w", err)
		}
		defer client.Close()
		store = overlay.NewRedisStore(client, cfg.Overlay.KeyPrefix)
	}

	var travel providers.TravelTimeProvider
	if cfg.TravelTime.LiveTravelTimeEnabled() {
		travel = traveltime.NewGoogleDistanceMatrixProvider(cfg.TravelTime.APIKey, cfg.TravelTime.Timeout)
	}

	selection := services.NewSelectionService(registry.NewCSVRegistry(opts.dataset), store, travel)
	result, err := selection.SelectBest(ctx, assessment, opts.latitude, opts.longitude)
	if err != nil {
		return err
	}

	if result != nil && opts.dispatch {
		record, err := services.NewDispatchService(store).Dispatch(ctx, result.HospitalID, assessment)
		if err != nil {
			return err
		}
		logger.Info().
			Str("dispatch_id", record.DispatchID).
			Str("hospital_id", record.HospitalID).
			Msg("Dispatch recorded")
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
