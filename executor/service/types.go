package service

import "context"

// RunTask is one command run inside a container of Image with Files
// placed in the working directory first.
type RunTask struct {
	Image   string
	Files   map[string][]byte
	Command []string
}

type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type Executor interface {
	WorkDir() string
	EnsureImage(ctx context.Context, image string) error
	Run(ctx context.Context, task *RunTask) (*RunResult, error)
	Close(ctx context.Context) error
}
