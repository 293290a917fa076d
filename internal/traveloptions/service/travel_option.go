package service

import (
	"context"
	"errors"
	"sync"

	traveloptionerrors "voyago/internal/traveloptions/errors"
	"voyago/internal/traveloptions/repository"
	"voyago/internal/traveloptions/validator"
	"voyago/pkg/config"
	apperrors "voyago/pkg/errors"
	"voyago/pkg/model"
	"voyago/pkg/sanitizer"
)

type TravelOptionService interface {
	Create(ctx context.Context, option *model.TravelOption) error
	GetByID(ctx context.Context, id string) (*model.TravelOption, error)
	Search(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.TravelOption, int64, error)
}

type travelOptionService struct {
	repo      repository.TravelOptionRepository
	validator *validator.TravelOptionValidator
	cfg       *config.Config
}

func NewTravelOptionService(
	repo repository.TravelOptionRepository,
	validator *validator.TravelOptionValidator,
	cfg *config.Config,
) TravelOptionService {
	return &travelOptionService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create persists a new travel offering. Derived fields (duration) are
// computed once here, never recomputed on later saves.
func (s *travelOptionService) Create(ctx context.Context, option *model.TravelOption) error {
	s.sanitize(option)
	option.ComputeDuration()

	if err := s.validator.Validate(option); err != nil {
		s.cfg.Log.Warn("Travel option validation failed", "error", err)
		return apperrors.Validation("Travel option validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, option); err != nil {
		s.cfg.Log.Error("Failed to create travel option", "error", err)
		return apperrors.Internal("Failed to create travel option", err)
	}

	s.cfg.Log.Info("Travel option created",
		"id", option.ID,
		"mode", option.Mode,
		"route", option.Route(),
		"operator", option.Operator,
		"total_seats", option.TotalSeats,
	)
	return nil
}

func (s *travelOptionService) GetByID(ctx context.Context, id string) (*model.TravelOption, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Travel option ID cannot be empty")
	}

	option, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, traveloptionerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Travel option", id)
		}
		if errors.Is(err, traveloptionerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid travel option ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve travel option", err)
	}

	return option, nil
}

func (s *travelOptionService) Search(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.TravelOption, int64, error) {
	filter.Origin = sanitizer.NormalizePlace(filter.Origin)
	filter.Destination = sanitizer.NormalizePlace(filter.Destination)

	var count int64
	var travelOptions []*model.TravelOption
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count travel options", "error", errCount)
			errCount = apperrors.Internal("Failed to count travel options", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		travelOptions, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list travel options", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve travel options", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return travelOptions, count, nil
}

func (s *travelOptionService) sanitize(option *model.TravelOption) {
	option.Operator = sanitizer.NormalizeOperator(option.Operator)
	option.Origin = sanitizer.NormalizePlace(option.Origin)
	option.Destination = sanitizer.NormalizePlace(option.Destination)
}
