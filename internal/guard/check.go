package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/ironsheep/logo-gallery/internal/models"
	"github.com/ironsheep/logo-gallery/internal/similarity"
)

// DefaultSimilarityThreshold is the same-owner score above which an upload is
// rejected as similar.
const DefaultSimilarityThreshold = 0.85

// Rejection messages.
const (
	msgDuplicate          = "Duplicate file detected"
	msgDuplicateElsewhere = "This file has already been uploaded by another user"
	msgSimilar            = "A very similar logo already exists in your uploads"
)

// Policy holds the two independent duplicate toggles.
type Policy struct {
	// AllowSystemDuplicates tolerates identical content owned by someone else.
	AllowSystemDuplicates bool
	// AllowSimilarImages skips the same-owner similarity pass.
	AllowSimilarImages bool
}

// DefaultPolicy tolerates cross-owner duplicates and rejects same-owner
// near-duplicates.
func DefaultPolicy() Policy {
	return Policy{AllowSystemDuplicates: true, AllowSimilarImages: false}
}

// SimilarityInfo describes the stored logo that made an upload "similar".
type SimilarityInfo struct {
	LogoID     string               `json:"logoId"`
	Similarity float64              `json:"similarity"`
	MatchType  similarity.MatchType `json:"matchType"`
}

// Decision is the outcome of Check.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   Reason `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`

	// ExistingID is the stored logo an exact duplicate matched.
	ExistingID string `json:"existingId,omitempty"`

	// Similarity is set when Reason is ReasonSimilar.
	Similarity *SimilarityInfo `json:"similarityInfo,omitempty"`

	// ComparisonErrors counts stored records whose features could not be
	// compared; they are treated as dissimilar.
	ComparisonErrors int `json:"comparisonErrors,omitempty"`
}

// Err converts a rejection into a *ValidationError; it returns nil when the
// decision accepts.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return &ValidationError{Reason: d.Reason, Message: d.Message, Similarity: d.Similarity}
}

// ContentHash returns the hex SHA-256 digest of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Check decides whether an upload may be stored next to existing.
//
// An empty existing set always accepts. Otherwise identical content owned by
// ownerID is a duplicate, and identical content owned by anyone else is a
// duplicate unless policy.AllowSystemDuplicates. Unless
// policy.AllowSimilarImages, the upload is then compared with ownerID's own
// records only and rejected as similar when the best score is strictly above
// threshold (DefaultSimilarityThreshold when threshold <= 0).
func Check(contentHash string, f *features.ImageFeatures, ownerID string, existing []models.Logo, policy Policy, threshold float64) Decision {
	if len(existing) == 0 {
		return Decision{Accepted: true}
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	var foreign *models.Logo
	for i := range existing {
		rec := &existing[i]
		if rec.ContentHash != contentHash {
			continue
		}
		if rec.OwnerID == ownerID {
			return Decision{Reason: ReasonDuplicate, Message: msgDuplicate, ExistingID: rec.ID}
		}
		if foreign == nil {
			foreign = rec
		}
	}
	if foreign != nil && !policy.AllowSystemDuplicates {
		return Decision{Reason: ReasonDuplicate, Message: msgDuplicateElsewhere, ExistingID: foreign.ID}
	}

	if policy.AllowSimilarImages {
		return Decision{Accepted: true}
	}

	var (
		best   *SimilarityInfo
		failed int
	)
	for i := range existing {
		rec := &existing[i]
		if rec.OwnerID != ownerID {
			continue
		}
		res, err := similarity.Evaluate(f, &rec.Features)
		if err != nil {
			failed++
			continue
		}
		if res.Similarity > threshold && (best == nil || res.Similarity > best.Similarity) {
			best = &SimilarityInfo{LogoID: rec.ID, Similarity: res.Similarity, MatchType: res.MatchType}
		}
	}

	if best != nil {
		return Decision{Reason: ReasonSimilar, Message: msgSimilar, Similarity: best, ComparisonErrors: failed}
	}
	return Decision{Accepted: true, ComparisonErrors: failed}
}

// Evaluate hashes and extracts data, then runs Check. Extraction failures are
// returned as *ValidationError.
func Evaluate(data []byte, ownerID string, existing []models.Logo, policy Policy, threshold float64) (Decision, error) {
	f, err := features.Extract(data)
	if err != nil {
		return Decision{}, extractionRejection(err)
	}
	return Check(ContentHash(data), f, ownerID, existing, policy, threshold), nil
}

func extractionRejection(err error) *ValidationError {
	if errors.Is(err, features.ErrTooManyPixels) {
		return &ValidationError{Reason: ReasonInvalidDimensions, Message: "image canvas is too large", Cause: err}
	}
	if errors.Is(err, features.ErrInvalidDimensions) {
		return &ValidationError{Reason: ReasonInvalidDimensions, Message: "image has no usable dimensions", Cause: err}
	}
	return &ValidationError{Reason: ReasonInvalidType, Message: fmt.Sprintf("image could not be decoded: %v", err), Cause: err}
}
