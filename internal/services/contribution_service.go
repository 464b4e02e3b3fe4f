package services

import (
	"context"
	"time"

	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
)

type ContributionService struct {
	repo       repository.ContributionRepository
	memberRepo repository.MemberRepository
}

func NewContributionService(repo repository.ContributionRepository, memberRepo repository.MemberRepository) *ContributionService {
	return &ContributionService{repo: repo, memberRepo: memberRepo}
}

func (s *ContributionService) FindByID(ctx context.Context, id uint) (*models.Contribution, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contribution")
	}
	return c, nil
}

func (s *ContributionService) List(ctx context.Context, query *repository.ListQuery) ([]models.Contribution, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *ContributionService) Create(ctx context.Context, c *models.Contribution) error {
	if !c.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	if _, err := s.memberRepo.FindByID(ctx, c.MemberID); err != nil {
		return notFound(err, "member")
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	c.Amount = c.Amount.Round(2)
	return s.repo.Create(ctx, c)
}
