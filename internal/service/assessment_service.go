package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/ledger"
	"github.com/stjoseph/assessment-gateway/internal/model"
	"github.com/stjoseph/assessment-gateway/internal/repository"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

// ErrAssessmentNotFound is returned when the upstream listing has no
// assessment with the requested ID.
var ErrAssessmentNotFound = errors.New("assessment not found")

// Lister supplies the student's assessment listing.
type Lister interface {
	ListAssessments(ctx context.Context, token string) ([]model.Assessment, error)
}

// LobbyAssessment is an assessment as displayed in the student lobby:
// summary fields plus the window phase badge and completion overlay.
// Question prompts are withheld until a session is started.
type LobbyAssessment struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      int           `json:"duration_minutes"`
	QuestionCount int           `json:"question_count"`
	Phase         session.Phase `json:"phase"`
	Completed     bool          `json:"completed"`
}

// AssessmentService handles the lobby listing and assessment lookup.
type AssessmentService struct {
	upstream Lister
	rdb      *redis.Client
	ledger   ledger.Ledger
	results  *repository.ResultRepository
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService. rdb and results may
// be nil; caching and ledger reconciliation are then skipped.
func NewAssessmentService(
	upstream Lister,
	rdb *redis.Client,
	ldg ledger.Ledger,
	results *repository.ResultRepository,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		upstream: upstream,
		rdb:      rdb,
		ledger:   ldg,
		results:  results,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "assessment_service").Logger(),
	}
}

// GetLobby returns the student's assessments with phase badges and the
// completed overlay.
func (s *AssessmentService) GetLobby(ctx context.Context, token string, userID int) ([]LobbyAssessment, error) {
	assessments, err := s.listForStudent(ctx, token, userID)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedSet(ctx, userID)
	if err != nil {
		// The overlay is cosmetic here; the start guard re-checks.
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Completion overlay unavailable")
		completed = map[string]struct{}{}
	}

	now := time.Now()
	lobby := make([]LobbyAssessment, 0, len(assessments))
	for i := range assessments {
		a := &assessments[i]
		_, done := completed[a.ID]
		lobby = append(lobby, LobbyAssessment{
			ID:            a.ID,
			Title:         a.Title,
			Description:   a.Description,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			Duration:      a.Duration,
			QuestionCount: len(a.Questions),
			Phase:         session.Classify(a.StartTime, a.EndTime, now),
			Completed:     done,
		})
	}

	return lobby, nil
}

// GetAssessment returns the full definition (including questions) for one
// assessment from the student's listing.
func (s *AssessmentService) GetAssessment(ctx context.Context, token string, userID int, assessmentID string) (*model.Assessment, error) {
	assessments, err := s.listForStudent(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	for i := range assessments {
		if assessments[i].ID == assessmentID {
			return &assessments[i], nil
		}
	}
	return nil, ErrAssessmentNotFound
}

// listForStudent fetches the upstream listing with a short-TTL Redis cache
// in front, so lobby refreshes do not hammer the platform.
func (s *AssessmentService) listForStudent(ctx context.Context, token string, userID int) ([]model.Assessment, error) {
	cacheKey := config.CacheKey.LobbyKey(userID)

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached []model.Assessment
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
			// Corrupt cache entry: drop it and fall through to upstream.
			s.rdb.Del(ctx, cacheKey)
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Lobby cache read failed")
		}
	}

	assessments, err := s.upstream.ListAssessments(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(assessments); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Lobby cache write failed")
			}
		}
	}

	return assessments, nil
}

// completedSet merges the ledger with the result archive and self-heals
// ledger entries missing after e.g. a Redis flush.
func (s *AssessmentService) completedSet(ctx context.Context, userID int) (map[string]struct{}, error) {
	ids, err := s.ledger.CompletedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		completed[id] = struct{}{}
	}

	if s.results != nil {
		archived, err := s.results.CompletedIDs(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Msg("Archive reconciliation failed")
			return completed, nil
		}
		for _, id := range archived {
			if _, ok := completed[id]; !ok {
				completed[id] = struct{}{}
				if err := s.ledger.MarkCompleted(ctx, userID, id); err != nil {
					s.log.Warn().Err(err).Str("assessment_id", id).Msg("Ledger self-heal failed")
				}
			}
		}
	}

	return completed, nil
}
