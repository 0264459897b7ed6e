package service

import (
	"github.com/deppfellow/signal-webhook/internal/lib/job"
	"github.com/deppfellow/signal-webhook/internal/repository"
	"github.com/deppfellow/signal-webhook/internal/server"
)

type Services struct {
	Signal *SignalService
	Job    *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier Notifier
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Signal: NewSignalService(repos.Signal, notifier, s.Config),
		Job:    s.Job,
	}, nil
}
