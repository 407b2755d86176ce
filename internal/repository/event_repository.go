package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ticket-manager/internal/status"
	"ticket-manager/internal/store"
	"ticket-manager/models"
	"ticket-manager/utils"
)

var ErrEventNotFound = status.New(status.ErrNotFound, "Event not found")

// EventRepository resolves event names. Names are cached in Redis when a
// client is given, and store lookups go through a circuit breaker so a
// failing events collection does not slow every ticket lookup.
type EventRepository struct {
	store    store.DocumentStore
	cache    *redis.Client
	cacheTTL time.Duration
	breaker  *utils.CircuitBreaker
}

func NewEventRepository(s store.DocumentStore, cache *redis.Client, cacheTTL time.Duration) *EventRepository {
	return &EventRepository{
		store:    s,
		cache:    cache,
		cacheTTL: cacheTTL,
		breaker:  utils.NewCircuitBreaker("events"),
	}
}

func eventNameKey(eventID string) string {
	return fmt.Sprintf("event:name:%s", eventID)
}

func (r *EventRepository) FindName(ctx context.Context, eventID string) (string, error) {
	if eventID == "" {
		return "", ErrEventNotFound
	}

	if r.cache != nil {
		name, err := r.cache.Get(ctx, eventNameKey(eventID)).Result()
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("event_id", eventID).Msg("event name cache read failed")
		}
	}

	result, err := r.breaker.Execute(ctx, func() (any, error) {
		doc, err := r.store.Get(ctx, store.Events, eventID)
		if errors.Is(err, store.ErrNotFound) {
			// a missing event is an answer, not a collaborator failure
			return "", nil
		}
		if err != nil {
			return nil, err
		}
		var event models.Event
		if err := doc.Decode(&event); err != nil {
			return nil, err
		}
		return event.Name, nil
	})
	if err != nil {
		return "", fmt.Errorf("find event %s: %w", eventID, err)
	}

	name, _ := result.(string)
	if name == "" {
		return "", ErrEventNotFound
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, eventNameKey(eventID), name, r.cacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("event_id", eventID).Msg("event name cache write failed")
		}
	}
	return name, nil
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	fields, err := store.ToFields(event)
	if err != nil {
		return err
	}
	return r.store.Create(ctx, store.Events, event.ID, fields)
}
