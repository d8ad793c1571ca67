package job

import "errors"

var (
	ErrPoolRequired      = errors.New("job: pool is required")
	ErrNotConfigured     = errors.New("job: not configured")
	ErrUnknownTask       = errors.New("job: unknown task")
	ErrInvalidPayload    = errors.New("job: invalid payload")
	ErrInvalidSchedule   = errors.New("job: invalid cron schedule")
	ErrAlreadyStarted    = errors.New("job: already started")
	ErrNotStarted        = errors.New("job: not started")
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
)
