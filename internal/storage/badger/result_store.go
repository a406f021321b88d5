package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ResultStore implements the ResultStore interface for Badger. Analyses are
// keyed by their analysis ID, content objects by URL; both live in the same
// store as distinct types.
type ResultStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStore creates a ResultStore over an open connection. The
// connection is owned by the caller; Close here is a no-op.
func NewResultStore(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStore {
	return &ResultStore{
		db:     db,
		logger: logger,
	}
}

// SaveAnalysis upserts an analysis result keyed by its ID.
func (s *ResultStore) SaveAnalysis(ctx context.Context, analysis *models.PageAnalysis) error {
	if analysis == nil || analysis.ID == "" {
		return fmt.Errorf("analysis ID is required")
	}

	if err := s.db.Store().Upsert(analysis.ID, analysis); err != nil {
		s.logger.Error().Err(err).Str("id", analysis.ID).Msg("Failed to save analysis")
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	s.logger.Debug().Str("id", analysis.ID).Str("url", analysis.URL).Msg("Analysis archived")
	return nil
}

// SaveContent upserts an extracted content object keyed by URL.
func (s *ResultStore) SaveContent(ctx context.Context, content *models.PageContent) error {
	if content == nil || content.URL == "" {
		return fmt.Errorf("content URL is required")
	}

	if err := s.db.Store().Upsert(content.URL, content); err != nil {
		s.logger.Error().Err(err).Str("url", content.URL).Msg("Failed to save content")
		return fmt.Errorf("failed to save content: %w", err)
	}

	return nil
}

// GetAnalysis returns the analysis with the given ID.
func (s *ResultStore) GetAnalysis(ctx context.Context, id string) (*models.PageAnalysis, error) {
	var analysis models.PageAnalysis
	if err := s.db.Store().Get(id, &analysis); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("analysis not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// GetAnalysisByURL returns the most recent analysis for a URL.
func (s *ResultStore) GetAnalysisByURL(ctx context.Context, url string) (*models.PageAnalysis, error) {
	var analyses []models.PageAnalysis
	query := badgerhold.Where("URL").Eq(url).SortBy("Timestamp").Reverse().Limit(1)
	if err := s.db.Store().Find(&analyses, query); err != nil {
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	if len(analyses) == 0 {
		return nil, fmt.Errorf("no analysis found for URL: %s", url)
	}
	return &analyses[0], nil
}

// GetContent returns the stored content object for a URL.
func (s *ResultStore) GetContent(ctx context.Context, url string) (*models.PageContent, error) {
	var content models.PageContent
	if err := s.db.Store().Get(url, &content); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("content not found for URL: %s", url)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &content, nil
}

// ListAnalyses returns stored analyses, newest first, up to limit.
// A limit <= 0 returns all records.
func (s *ResultStore) ListAnalyses(ctx context.Context, limit int) ([]*models.PageAnalysis, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var analyses []models.PageAnalysis
	if err := s.db.Store().Find(&analyses, query); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	result := make([]*models.PageAnalysis, len(analyses))
	for i := range analyses {
		result[i] = &analyses[i]
	}
	return result, nil
}

// Close is a no-op; the connection belongs to the caller.
func (s *ResultStore) Close() error {
	return nil
}
