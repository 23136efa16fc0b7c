package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

const (
	DefaultJobLimit = 20
	MaxJobLimit     = 100
)

// JobInput is the editable part of a job posting.
type JobInput struct {
	Company          string `json:"company"`
	Title            string `json:"title"`
	Salary           string `json:"salary"`
	Location         string `json:"location"`
	Level            string `json:"level"`
	Website          string `json:"website"`
	AboutUs          string `json:"aboutUs"`
	RoleOverview     string `json:"roleOverview"`
	Responsibilities string `json:"responsibilities"`
	Requirements     string `json:"requirements"`
	FullTime         bool   `json:"fullTime"`
	JobType          string `json:"jobType"`
}

func (in *JobInput) validate() error {
	in.Company = strings.TrimSpace(in.Company)
	in.Title = strings.TrimSpace(in.Title)
	in.Website = strings.TrimSpace(in.Website)
	return firstErr(
		required("company", in.Company),
		required("title", in.Title),
		required("location", in.Location),
		required("level", in.Level),
		required("roleOverview", in.RoleOverview),
		validURL("website", in.Website),
	)
}

func (in JobInput) apply(job *model.Job) {
	job.Company = in.Company
	job.Title = in.Title
	job.Salary = strings.TrimSpace(in.Salary)
	job.Location = strings.TrimSpace(in.Location)
	job.Level = strings.TrimSpace(in.Level)
	job.Website = in.Website
	job.AboutUs = strings.TrimSpace(in.AboutUs)
	job.RoleOverview = strings.TrimSpace(in.RoleOverview)
	job.Responsibilities = strings.TrimSpace(in.Responsibilities)
	job.Requirements = strings.TrimSpace(in.Requirements)
	job.FullTime = in.FullTime
	job.JobType = strings.TrimSpace(in.JobType)
}

type CareerService struct {
	jobs   repository.JobRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewCareerService(jobs repository.JobRepository, logger *slog.Logger) *CareerService {
	return &CareerService{jobs: jobs, logger: logger, now: time.Now}
}

func (s *CareerService) Create(ctx context.Context, userID string, in JobInput) (*model.Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	job := &model.Job{UserID: userID, DatePosted: s.now().UTC()}
	in.apply(job)

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("service/career: creating job: %w", err)
	}
	s.logger.Info("job posted", slog.String("job_id", job.ID), slog.String("user_id", userID))
	return job, nil
}

func (s *CareerService) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *CareerService) List(ctx context.Context, limit, offset int) ([]model.Job, error) {
	if limit <= 0 {
		limit = DefaultJobLimit
	}
	if limit > MaxJobLimit {
		limit = MaxJobLimit
	}
	if offset < 0 {
		offset = 0
	}
	jobs, err := s.jobs.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/career: listing jobs: %w", err)
	}
	return jobs, nil
}

func (s *CareerService) owned(ctx context.Context, userID, id string) (*model.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperror.Forbidden("Only the poster can change this job.")
	}
	return job, nil
}

func (s *CareerService) Update(ctx context.Context, userID, id string, in JobInput) (*model.Job, error) {
	job, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.apply(job)

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("service/career: updating job %s: %w", id, err)
	}
	return job, nil
}

func (s *CareerService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/career: deleting job %s: %w", id, err)
	}
	s.logger.Info("job deleted", slog.String("job_id", id))
	return nil
}
