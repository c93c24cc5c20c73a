// Package guard decides whether an uploaded logo may be stored.
//
// The decision itself is the pure function Check. Guard wraps it with the
// request-level validation (metadata, size, type, declared dimensions), the
// read of the existing records and the final write, translating every failure
// into ValidationError, StorageError or ConflictError.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/logo-gallery/internal/config"
	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/ironsheep/logo-gallery/internal/models"
	"github.com/ironsheep/logo-gallery/internal/store"
)

// Store is the persistence the guard needs: one read of every record and one
// write.
type Store interface {
	ListLogos(ctx context.Context) ([]models.Logo, error)
	CreateLogo(ctx context.Context, logo *models.Logo) error
}

// Observer receives pipeline measurements. *metrics.Metrics implements it.
type Observer interface {
	ObserveDecision(reason string)
	ObserveExtraction(d time.Duration)
	ObserveComparisonErrors(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(string)          {}
func (nopObserver) ObserveExtraction(time.Duration) {}
func (nopObserver) ObserveComparisonErrors(int)     {}

// Options configures a Guard. Zero values fall back to defaults.
type Options struct {
	Policy    Policy
	Threshold float64
	Limits    Limits
	Logger    *zap.Logger
	Observer  Observer
	Now       func() time.Time
}

// OptionsFromConfig derives Options from the service configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Policy: Policy{
			AllowSystemDuplicates: cfg.Policy.AllowSystemDuplicates,
			AllowSimilarImages:    cfg.Policy.AllowSimilarImages,
		},
		Threshold: cfg.Policy.SimilarityThreshold,
		Limits:    LimitsFromConfig(cfg.Upload),
	}
}

// Upload is one submission from an owner.
type Upload struct {
	OwnerID     string
	Filename    string
	Data        []byte
	Title       string
	Description string
	Tags        []string

	// Width and Height are the optional declared dimensions as received.
	Width  string
	Height string
}

// Guard validates uploads and stores the accepted ones. It holds no mutable
// state and is safe for concurrent use.
type Guard struct {
	store     Store
	policy    Policy
	threshold float64
	limits    Limits
	logger    *zap.Logger
	observer  Observer
	now       func() time.Time
}

// New creates a guard writing to s.
func New(s Store, opts Options) *Guard {
	g := &Guard{
		store:     s,
		policy:    opts.Policy,
		threshold: opts.Threshold,
		limits:    opts.Limits,
		logger:    opts.Logger,
		observer:  opts.Observer,
		now:       opts.Now,
	}
	if g.threshold <= 0 {
		g.threshold = DefaultSimilarityThreshold
	}
	g.limits = g.limits.withDefaults(LimitsFromConfig(config.DefaultConfig().Upload))
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.observer == nil {
		g.observer = nopObserver{}
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Limits returns the effective upload limits.
func (g *Guard) Limits() Limits {
	return g.limits
}

// Submit validates up and, when accepted, stores and returns the new logo.
func (g *Guard) Submit(ctx context.Context, up Upload) (*models.Logo, error) {
	logger := g.logger.With(zap.String("owner_id", up.OwnerID), zap.String("filename", up.Filename))

	prepared, err := g.prepare(up)
	if err != nil {
		return nil, g.reject(logger, err)
	}

	existing, err := g.store.ListLogos(ctx)
	if err != nil {
		logger.Error("Failed to list existing logos", zap.Error(err))
		return nil, &StorageError{Op: "list logos", Err: err}
	}

	decision := g.check(logger, prepared, existing)
	if !decision.Accepted {
		logger.Info("Upload rejected",
			zap.String("reason", string(decision.Reason)),
			zap.String("existing_id", decision.ExistingID),
			zap.String("hash", shortHash(prepared.hash)))
		g.observer.ObserveDecision(string(decision.Reason))
		return nil, decision.Err()
	}

	logo := &models.Logo{
		ID:          uuid.NewString(),
		OwnerID:     up.OwnerID,
		Title:       prepared.meta.title,
		Description: prepared.meta.description,
		Tags:        prepared.meta.tags,
		Filename:    up.Filename,
		MimeType:    MimeType(prepared.format),
		SizeBytes:   int64(len(up.Data)),
		ContentHash: prepared.hash,
		Features:    *prepared.features,
		CreatedAt:   g.now().UTC(),
	}

	if err := g.store.CreateLogo(ctx, logo); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			logger.Warn("Concurrent identical upload lost the write", zap.String("hash", shortHash(prepared.hash)))
			g.observer.ObserveDecision("conflict")
			return nil, &ConflictError{OwnerID: up.OwnerID, ContentHash: prepared.hash, Err: err}
		}
		logger.Error("Failed to store logo", zap.String("logo_id", logo.ID), zap.Error(err))
		return nil, &StorageError{Op: "create logo", Err: err}
	}

	logger.Info("Upload accepted",
		zap.String("logo_id", logo.ID),
		zap.String("hash", shortHash(prepared.hash)),
		zap.Int("width", logo.Features.Width),
		zap.Int("height", logo.Features.Height))
	g.observer.ObserveDecision("accepted")
	return logo, nil
}

// Preview runs the same validation and duplicate check as Submit without
// storing anything. Metadata is not required.
func (g *Guard) Preview(ctx context.Context, ownerID string, data []byte) (Decision, error) {
	logger := g.logger.With(zap.String("owner_id", ownerID))

	up := Upload{OwnerID: ownerID, Data: data, Title: "preview"}
	prepared, err := g.prepare(up)
	if err != nil {
		return Decision{}, err
	}

	existing, err := g.store.ListLogos(ctx)
	if err != nil {
		return Decision{}, &StorageError{Op: "list logos", Err: err}
	}
	return g.check(logger, prepared, existing), nil
}

type preparedUpload struct {
	ownerID  string
	meta     metadata
	format   string
	hash     string
	features *features.ImageFeatures
}

func (g *Guard) prepare(up Upload) (*preparedUpload, error) {
	meta, err := g.limits.checkMetadata(up)
	if err != nil {
		return nil, err
	}
	if err := g.limits.checkSize(up.Data); err != nil {
		return nil, err
	}
	format, err := checkType(up.Data)
	if err != nil {
		return nil, err
	}
	declaredW, err := parseDeclared("width", up.Width)
	if err != nil {
		return nil, err
	}
	declaredH, err := parseDeclared("height", up.Height)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := features.ExtractWithLimit(up.Data, g.limits.MaxPixels)
	g.observer.ObserveExtraction(time.Since(start))
	if err != nil {
		return nil, extractionRejection(err)
	}
	if err := checkDeclared(declaredW, declaredH, f); err != nil {
		return nil, err
	}

	return &preparedUpload{
		ownerID:  up.OwnerID,
		meta:     meta,
		format:   format,
		hash:     ContentHash(up.Data),
		features: f,
	}, nil
}

func (g *Guard) check(logger *zap.Logger, p *preparedUpload, existing []models.Logo) Decision {
	decision := Check(p.hash, p.features, p.ownerID, existing, g.policy, g.threshold)
	if decision.ComparisonErrors > 0 {
		logger.Warn("Skipped stored logos with unusable features",
			zap.Int("count", decision.ComparisonErrors))
		g.observer.ObserveComparisonErrors(decision.ComparisonErrors)
	}
	return decision
}

func (g *Guard) reject(logger *zap.Logger, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		logger.Info("Upload rejected", zap.String("reason", string(verr.Reason)), zap.String("message", verr.Message))
		g.observer.ObserveDecision(string(verr.Reason))
	}
	return err
}
