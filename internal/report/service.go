package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"attendtrack/internal/attendance"
)

const rateKeyPrefix = "attendtrack:rate:"

// Rate is a student's attendance rate over their cohort's completed sessions.
type Rate struct {
	StudentID     string  `json:"student_id"`
	Present       int     `json:"present"`
	TotalSessions int     `json:"total_sessions"`
	Rate          float64 `json:"rate"`
}

// Store is the query surface the service needs.
type Store interface {
	CourseSessions(ctx context.Context, courseID string, from, to time.Time) ([]attendance.Session, error)
	StudentAttendance(ctx context.Context, studentID string) (present, totalSessions int, err error)
	CohortStudentIDs(ctx context.Context, sessionID string) ([]string, error)
}

// Service answers reporting reads, with a redis cache in front of the
// per-student rate query. The cache is warmed by the worker when a
// session closes and read through on miss.
type Service struct {
	store    Store
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewService creates a report service. cache may be nil; reads then always
// hit the database.
func NewService(store Store, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// CourseSessions lists a course's sessions in a date range.
func (s *Service) CourseSessions(ctx context.Context, courseID string, from, to time.Time) ([]attendance.Session, error) {
	return s.store.CourseSessions(ctx, courseID, from, to)
}

// StudentRate returns a student's attendance rate, via cache when possible.
func (s *Service) StudentRate(ctx context.Context, studentID string) (Rate, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, rateKeyPrefix+studentID).Result()
		if err == nil {
			var cached Rate
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("rate cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return s.computeAndCache(ctx, studentID)
}

// WarmSessionCohort recomputes and caches rates for every student in the
// closed session's cohort. Called by the worker on session.closed.
func (s *Service) WarmSessionCohort(ctx context.Context, sessionID string) error {
	ids, err := s.store.CohortStudentIDs(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.computeAndCache(ctx, id); err != nil {
			s.logger.Warn("rate warm failed", zap.String("student_id", id), zap.Error(err))
		}
	}
	s.logger.Info("cohort rates warmed",
		zap.String("session_id", sessionID),
		zap.Int("students", len(ids)),
	)
	return nil
}

func (s *Service) computeAndCache(ctx context.Context, studentID string) (Rate, error) {
	present, total, err := s.store.StudentAttendance(ctx, studentID)
	if err != nil {
		return Rate{}, err
	}
	rate := Rate{StudentID: studentID, Present: present, TotalSessions: total}
	if total > 0 {
		rate.Rate = float64(present) / float64(total)
	}
	if s.cache != nil {
		if raw, err := json.Marshal(rate); err == nil {
			if err := s.cache.Set(ctx, rateKeyPrefix+studentID, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("rate cache write failed", zap.String("student_id", studentID), zap.Error(err))
			}
		}
	}
	return rate, nil
}
