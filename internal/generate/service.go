// Package generate runs the alt-text generation workflow: quota check,
// model call, credit consumption, persistence, and compensating cleanup
// of the uploaded object when the model call fails.
package generate

import (
	"context"
	"fmt"
	"log"

	"github.com/imgaltgen/imgaltgen/internal/alttext"
	"github.com/imgaltgen/imgaltgen/internal/models"
	"github.com/imgaltgen/imgaltgen/internal/storage"
)

// CreditLimiter is the daily quota counter.
type CreditLimiter interface {
	Peek(ctx context.Context, userID string) (*models.CreditStatus, error)
	Consume(ctx context.Context, userID string) (*models.ConsumeResult, error)
}

// Store persists generation records.
type Store interface {
	CreateGeneration(ctx context.Context, gen *models.Generation) error
}

// ObjectStore deletes uploaded objects during compensating cleanup.
type ObjectStore interface {
	Delete(ctx context.Context, key string) error
}

// Cache is an optional exact-match cache of generated text by object key.
type Cache interface {
	Get(ctx context.Context, objectKey string) (string, bool, error)
	Set(ctx context.Context, objectKey, altText string) error
}

type Service struct {
	limiter   CreditLimiter
	generator alttext.Generator
	objects   ObjectStore
	store     Store
	cache     Cache // may be nil
}

func NewService(limiter CreditLimiter, generator alttext.Generator, objects ObjectStore, store Store, cache Cache) *Service {
	return &Service{
		limiter:   limiter,
		generator: generator,
		objects:   objects,
		store:     store,
		cache:     cache,
	}
}

// Result is what a completed run returns. Warning carries non-fatal
// downstream failures (credit consumption, persistence) that must not
// discard the already-generated text.
type Result struct {
	AltText          string
	CreditsRemaining int
	Warning          string
}

// Generate runs one request through the workflow. The error return is
// one of the taxonomy errors for terminal failures; downstream partial
// failures come back inside the Result instead.
func (s *Service) Generate(ctx context.Context, userID, imageURL string) (*Result, error) {
	// Check, not reserve: concurrent requests can all pass here and
	// race at Consume, which stays authoritative.
	status, err := s.limiter.Peek(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("credit check failed: %w", err)
	}
	if status.Remaining <= 0 {
		return nil, &QuotaError{
			Remaining: status.Remaining,
			Reset:     status.Reset,
			ResetDate: status.ResetDate,
		}
	}

	if imageURL == "" {
		return nil, ErrMissingImageURL
	}

	mimeType, ok := alttext.MIMETypeForURL(imageURL)
	if !ok {
		return nil, ErrInvalidImageType
	}

	objectKey, err := storage.KeyFromURL(imageURL)
	if err != nil {
		return nil, ErrInvalidImageType
	}

	text, cached, err := s.lookupCache(ctx, objectKey)
	if err != nil {
		log.Printf("alt text cache lookup failed: %v", err)
	}

	if !cached {
		text, err = s.generator.Generate(ctx, imageURL, mimeType)
		if err != nil {
			s.cleanup(ctx, objectKey)
			return nil, &GenerationError{Err: err}
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, objectKey, text); err != nil {
				log.Printf("failed to cache alt text for %s: %v", objectKey, err)
			}
		}
	}

	// Only consume after the text exists; a credit pays for a served
	// generation, never for a failed call.
	consumed, err := s.limiter.Consume(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("credit consumption failed: %w", err)
	}
	if !consumed.Success {
		// A race slipped past the earlier Peek. The text is already
		// produced; return it rather than discard paid work.
		log.Printf("credit consumption raced for user %s, returning text without a record", userID)
		return &Result{
			AltText: text,
			Warning: "credit could not be consumed",
		}, nil
	}

	gen := &models.Generation{
		UserID:   userID,
		ImageURL: imageURL,
		AltText:  text,
	}
	if err := s.store.CreateGeneration(ctx, gen); err != nil {
		log.Printf("failed to persist generation for user %s: %v", userID, err)
		return &Result{
			AltText:          text,
			CreditsRemaining: consumed.Remaining,
			Warning:          "generation could not be saved to history",
		}, nil
	}

	return &Result{
		AltText:          text,
		CreditsRemaining: consumed.Remaining,
	}, nil
}

func (s *Service) lookupCache(ctx context.Context, objectKey string) (string, bool, error) {
	if s.cache == nil {
		return "", false, nil
	}
	return s.cache.Get(ctx, objectKey)
}

// cleanup deletes the uploaded object after a failed generation. Its own
// failure is logged, never returned, so the original error stays visible.
func (s *Service) cleanup(ctx context.Context, objectKey string) {
	if err := s.objects.Delete(ctx, objectKey); err != nil {
		log.Printf("failed to delete uploaded object %s: %v", objectKey, err)
		return
	}
	log.Printf("deleted uploaded object %s after failed generation", objectKey)
}
