package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/frequency"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/moderation"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/observability"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/repository"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/screening"
)

// ScreeningService orchestrates asset screening end to end: image analysis
// through the scheduler, metadata evaluation through the frequency scorer,
// aggregation, and persistence of the resulting decision.
type ScreeningService struct {
	scheduler *screening.Scheduler
	repo      *repository.ModerationRepository
	modConfig moderation.Config
	log       *zap.Logger
	metrics   *observability.Metrics
}

// NewScreeningService creates a new screening service
func NewScreeningService(
	scheduler *screening.Scheduler,
	repo *repository.ModerationRepository,
	modConfig moderation.Config,
	log *zap.Logger,
	metrics *observability.Metrics,
) *ScreeningService {
	return &ScreeningService{
		scheduler: scheduler,
		repo:      repo,
		modConfig: modConfig,
		log:       log,
		metrics:   metrics,
	}
}

// ScreenAssetInput is one asset submitted for screening
type ScreenAssetInput struct {
	AssetID     string
	Title       string
	Description string
	Prompt      string
	Tags        []string
	Metadata    map[string]interface{}

	// Image is the encoded image buffer; empty for metadata-only assets.
	Image []byte
}

// ScreenAsset screens an asset with an image payload. The image goes through
// the bounded scheduler; metadata is evaluated directly. A terminal analysis
// failure does not publish the asset: it is held in the flagged state for
// manual review, because the safety pipeline failing open would be worse
// than failing closed.
func (s *ScreeningService) ScreenAsset(ctx context.Context, in ScreenAssetInput) (*models.ScreeningRecord, error) {
	if in.AssetID == "" {
		in.AssetID = uuid.NewString()
	}

	eval := s.evaluateMetadata(in)

	var analysis *models.ImageAnalysisResult
	if len(in.Image) > 0 {
		future := s.scheduler.Enqueue(in.Image)
		result, err := future.Wait(ctx)
		switch {
		case err == nil:
			analysis = result
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("screening interrupted: %w", err)
		default:
			return s.holdForReview(in, eval, err)
		}
	}

	decision := moderation.Evaluate(s.modConfig, moderation.Input{
		Title:       in.Title,
		Description: in.Description,
		Prompt:      in.Prompt,
		Tags:        in.Tags,
		Metadata:    in.Metadata,
		Screening:   eval,
		Image:       analysis,
	})

	record := s.buildRecord(in.AssetID, decision, analysis)
	if err := s.repo.Upsert(record); err != nil {
		return nil, err
	}

	s.metrics.ObserveDecision(record.Status)
	s.log.Info("asset screened",
		zap.String("asset_id", in.AssetID),
		zap.String("status", record.Status),
		zap.Bool("is_adult", record.IsAdult),
		zap.Bool("requires_moderation", record.RequiresModeration))

	return record, nil
}

// EvaluateMetadataOnly screens an asset without an image payload; the
// frequency scorer and aggregator run synchronously with no queueing.
func (s *ScreeningService) EvaluateMetadataOnly(_ context.Context, in ScreenAssetInput) (*models.ScreeningRecord, error) {
	if in.AssetID == "" {
		in.AssetID = uuid.NewString()
	}
	in.Image = nil

	decision := moderation.Evaluate(s.modConfig, moderation.Input{
		Title:       in.Title,
		Description: in.Description,
		Prompt:      in.Prompt,
		Tags:        in.Tags,
		Metadata:    in.Metadata,
		Screening:   s.evaluateMetadata(in),
	})

	record := s.buildRecord(in.AssetID, decision, nil)
	if err := s.repo.Upsert(record); err != nil {
		return nil, err
	}

	s.metrics.ObserveDecision(record.Status)
	return record, nil
}

// GetRecord returns the persisted screening record for an asset
func (s *ScreeningService) GetRecord(assetID string) (*models.ScreeningRecord, error) {
	return s.repo.GetByAssetID(assetID)
}

// ListFlagged returns assets held for moderation
func (s *ScreeningService) ListFlagged(limit, offset int) ([]*models.ScreeningRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListFlagged(limit, offset)
}

// SetStatus records a moderator's verdict on a held asset
func (s *ScreeningService) SetStatus(assetID, status string) error {
	switch status {
	case models.ModerationStatusPending, models.ModerationStatusPublished, models.ModerationStatusFlagged:
	default:
		return fmt.Errorf("invalid moderation status: %s", status)
	}
	return s.repo.SetStatus(assetID, status)
}

func (s *ScreeningService) evaluateMetadata(in ScreenAssetInput) *models.MetadataEvaluation {
	if in.Metadata == nil {
		return nil
	}
	return frequency.EvaluateLoRaMetadata(in.Metadata, s.modConfig.Packs)
}

// holdForReview persists the conservative fallback for a terminal analysis
// failure: the metadata-only decision, forced into the flagged state.
func (s *ScreeningService) holdForReview(in ScreenAssetInput, eval *models.MetadataEvaluation, cause error) (*models.ScreeningRecord, error) {
	decision := moderation.Evaluate(s.modConfig, moderation.Input{
		Title:       in.Title,
		Description: in.Description,
		Prompt:      in.Prompt,
		Tags:        in.Tags,
		Metadata:    in.Metadata,
		Screening:   eval,
	})
	decision.RequiresModeration = true

	record := s.buildRecord(in.AssetID, decision, nil)
	record.Status = models.ModerationStatusFlagged
	record.ErrorMessage = cause.Error()

	if err := s.repo.Upsert(record); err != nil {
		return nil, err
	}

	s.metrics.ObserveDecision(record.Status)
	s.log.Error("image analysis exhausted retries, asset held for review",
		zap.String("asset_id", in.AssetID),
		zap.Error(cause))

	return record, nil
}

func (s *ScreeningService) buildRecord(assetID string, decision models.ModerationDecision, analysis *models.ImageAnalysisResult) *models.ScreeningRecord {
	record := &models.ScreeningRecord{
		AssetID:            assetID,
		Status:             decision.Status(),
		IsAdult:            decision.IsAdult,
		IllegalMinor:       decision.IllegalMinor,
		IllegalBeast:       decision.IllegalBeast,
		RequiresModeration: decision.RequiresModeration,
		MetadataAdult:      decision.MetadataAdult,
		MetadataMinor:      decision.MetadataMinor,
		MetadataBeast:      decision.MetadataBeast,
	}

	if decision.MetadataScreening != nil {
		if data, err := json.Marshal(decision.MetadataScreening); err == nil {
			record.ScreeningJSON = string(data)
		}
	}
	if analysis != nil {
		if data, err := json.Marshal(analysis); err == nil {
			record.AnalysisJSON = string(data)
		}
	}

	return record
}
