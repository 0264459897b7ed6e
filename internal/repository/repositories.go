package repository

import (
	"github.com/deppfellow/signal-webhook/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Signal *SignalRepository
}

// NewRepositories constructs the repository container on the server's pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Signal: NewSignalRepository(s.DB.Pool),
	}
}
