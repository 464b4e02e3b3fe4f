package services

import (
	"github.com/sjperalta/sacco-api/internal/jobs"
)

// JobRunner schedules background work
type JobRunner interface {
	EnqueueAsync(name string, job jobs.Job)
}

type JobService struct {
	worker *jobs.Worker
}

func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{
		worker: worker,
	}
}

// GetStatus reports the background worker counters
func (s *JobService) GetStatus() jobs.WorkerStats {
	return s.worker.GetStats()
}
