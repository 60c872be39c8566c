package overlay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
	redisclient "github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/clients/redis"
)

const (
	fieldED         = "ed"
	fieldICU        = "icu"
	fieldSpecialist = "spec"
)

// RedisStore keeps the overlay in a single Redis hash so that one HGETALL is a
// consistent snapshot and one MULTI/EXEC applies a whole dispatch.
//
// Field layout: "ed:<hospital>", "icu:<hospital>", "spec:<Specialty>:<hospital>".
// The hospital name is always the last segment, so names containing ':' survive.
type RedisStore struct {
	client *redisclient.Client
	key    string
}

var _ repositories.CapacityOverlayStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed overlay store under keyPrefix
func NewRedisStore(client *redisclient.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "hospitalrouter"
	}
	return &RedisStore{
		client: client,
		key:    keyPrefix + ":overlay",
	}
}

// Get returns the overlay for one hospital
func (s *RedisStore) Get(ctx context.Context, hospitalID string) (entities.CapacityOverlay, error) {
	fields := []string{fieldED + ":" + hospitalID, fieldICU + ":" + hospitalID}
	for _, specialty := range entities.TrackedSpecialties {
		fields = append(fields, fieldSpecialist+":"+string(specialty)+":"+hospitalID)
	}

	values, err := s.client.Client().HMGet(ctx, s.key, fields...).Result()
	if err != nil {
		return entities.CapacityOverlay{}, fmt.Errorf("failed to read capacity overlay for %s: %w", hospitalID, err)
	}

	var entry entities.CapacityOverlay
	entry.EDBedsDelta = hashInt(values[0])
	entry.ICUBedsDelta = hashInt(values[1])
	for i, specialty := range entities.TrackedSpecialties {
		if d := hashInt(values[2+i]); d != 0 {
			if entry.SpecialistPatientsDelta == nil {
				entry.SpecialistPatientsDelta = make(map[entities.Specialty]int)
			}
			entry.SpecialistPatientsDelta[specialty] = d
		}
	}
	return entry, nil
}

// hashInt converts one HMGET value; missing fields come back as nil.
func hashInt(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Snapshot reads every overlay with one HGETALL
func (s *RedisStore) Snapshot(ctx context.Context) (map[string]entities.CapacityOverlay, error) {
	fields, err := s.client.Client().HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read capacity overlay: %w", err)
	}

	out := make(map[string]entities.CapacityOverlay)
	for field, raw := range fields {
		value, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		kind, rest, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}

		switch kind {
		case fieldED:
			entry := out[rest]
			entry.EDBedsDelta += value
			out[rest] = entry
		case fieldICU:
			entry := out[rest]
			entry.ICUBedsDelta += value
			out[rest] = entry
		case fieldSpecialist:
			name, hospitalID, ok := strings.Cut(rest, ":")
			if !ok {
				continue
			}
			specialty, known := entities.ParseSpecialty(name)
			if !known {
				continue
			}
			entry := out[hospitalID]
			if entry.SpecialistPatientsDelta == nil {
				entry.SpecialistPatientsDelta = make(map[entities.Specialty]int)
			}
			entry.SpecialistPatientsDelta[specialty] += value
			out[hospitalID] = entry
		}
	}
	return out, nil
}

// Apply increments every delta for the hospital in one transaction
func (s *RedisStore) Apply(ctx context.Context, hospitalID string, delta entities.CapacityOverlay) error {
	if hospitalID == "" || delta.IsZero() {
		return nil
	}

	_, err := s.client.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if delta.EDBedsDelta != 0 {
			pipe.HIncrBy(ctx, s.key, fieldED+":"+hospitalID, int64(delta.EDBedsDelta))
		}
		if delta.ICUBedsDelta != 0 {
			pipe.HIncrBy(ctx, s.key, fieldICU+":"+hospitalID, int64(delta.ICUBedsDelta))
		}
		for specialty, d := range delta.SpecialistPatientsDelta {
			if d == 0 {
				continue
			}
			pipe.HIncrBy(ctx, s.key, fieldSpecialist+":"+string(specialty)+":"+hospitalID, int64(d))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply capacity overlay for %s: %w", hospitalID, err)
	}
	return nil
}
