package config

import (
	"sync"
	"time"
)

type WorkerConfig struct {
	Workers        int
	QueueSize      int
	JobTimeout     time.Duration
	JobAttempts    int
	JobBaseBackoff time.Duration
	StageAttempts  int
	StageBackoff   time.Duration
}

var (
	workerConfig *WorkerConfig
	workerOnce   sync.Once
)

func LoadWorkerConfig() *WorkerConfig {
	workerOnce.Do(func() {
		workerConfig = &WorkerConfig{
			Workers:        getEnvInt("WORKER_COUNT", 2),
			QueueSize:      getEnvInt("WORKER_QUEUE_SIZE", 64),
			JobTimeout:     time.Duration(getEnvInt("WORKER_JOB_TIMEOUT_MINUTES", 60)) * time.Minute,
			JobAttempts:    getEnvInt("WORKER_JOB_ATTEMPTS", 3),
			JobBaseBackoff: time.Duration(getEnvInt("WORKER_JOB_BACKOFF_SECONDS", 5)) * time.Second,
			StageAttempts:  getEnvInt("WORKER_STAGE_ATTEMPTS", 2),
			StageBackoff:   time.Duration(getEnvInt("WORKER_STAGE_BACKOFF_SECONDS", 2)) * time.Second,
		}
	})
	return workerConfig
}
