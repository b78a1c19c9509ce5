package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/warduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New(3)
	s.ctx = context.Background()
}

func summary(session string, round int) *model.DuelSummary {
	return &model.DuelSummary{
		SessionID: model.SessionID(session),
		Round:     round,
		Players: []model.PlayerResult{
			{Label: model.Player1Label, Score: round},
			{Label: model.Player2Label, Score: 0},
		},
		Winner:  model.Player1Label,
		Reason:  model.EndReasonTimeUp,
		EndedAt: time.Date(2024, 1, 1, 12, round, 0, 0, time.UTC),
	}
}

func (s *StorageSuite) TestListEmpty() {
	result, err := s.storage.ListSummaries(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(result)

	count, err := s.storage.CountSummaries(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *StorageSuite) TestListNewestFirst() {
	for i := 1; i <= 2; i++ {
		s.Require().NoError(s.storage.SaveSummary(s.ctx, summary(fmt.Sprintf("s-%d", i), i)))
	}

	result, err := s.storage.ListSummaries(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(result, 2)
	s.Equal(model.SessionID("s-2"), result[0].SessionID)
	s.Equal(model.SessionID("s-1"), result[1].SessionID)
}

func (s *StorageSuite) TestRingDropsOldest() {
	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.storage.SaveSummary(s.ctx, summary(fmt.Sprintf("s-%d", i), i)))
	}

	result, err := s.storage.ListSummaries(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(result, 3)
	s.Equal(model.SessionID("s-5"), result[0].SessionID)
	s.Equal(model.SessionID("s-4"), result[1].SessionID)
	s.Equal(model.SessionID("s-3"), result[2].SessionID)

	count, err := s.storage.CountSummaries(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, count, "count includes evicted summaries")
}

func (s *StorageSuite) TestListRespectsLimit() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.storage.SaveSummary(s.ctx, summary(fmt.Sprintf("s-%d", i), i)))
	}

	result, err := s.storage.ListSummaries(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(result, 1)
	s.Equal(model.SessionID("s-3"), result[0].SessionID)
}

func (s *StorageSuite) TestGetSummariesForSession() {
	s.Require().NoError(s.storage.SaveSummary(s.ctx, summary("s-1", 1)))
	s.Require().NoError(s.storage.SaveSummary(s.ctx, summary("s-2", 1)))
	s.Require().NoError(s.storage.SaveSummary(s.ctx, summary("s-1", 2)))

	result, err := s.storage.GetSummariesForSession(s.ctx, "s-1")
	s.Require().NoError(err)
	s.Require().Len(result, 2)
	s.Equal(1, result[0].Round)
	s.Equal(2, result[1].Round)
}

func (s *StorageSuite) TestGetSummariesForSessionNotFound() {
	_, err := s.storage.GetSummariesForSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSummaryNotFound)
}

func (s *StorageSuite) TestStoredSummaryIsACopy() {
	original := summary("s-1", 1)
	s.Require().NoError(s.storage.SaveSummary(s.ctx, original))
	original.Players[0].Score = 99

	result, err := s.storage.ListSummaries(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(1, result[0].Players[0].Score)
}
