// Package docker runs snippets inside throwaway Docker containers.
//
// KEY CONCEPTS:
//   - One toolchain image per language (C and C++ share gcc).
//   - One Pool per image, created on the first run of that image so a server
//     that only ever sees Python never pulls the JVM.
//   - A container serves exactly one run and is force-removed afterwards.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/swiftsnip/internal/executor"
	"github.com/sakif/swiftsnip/internal/model"
)

// Executor implements the executor.Executor interface using Docker.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	pools map[string]*Pool // by image
}

var _ executor.Executor = (*Executor)(nil)

// New connects to the Docker daemon described by the environment
// (DOCKER_HOST and friends) and fails fast if it is unreachable.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	return &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*Pool),
	}, nil
}

// Warm starts the pools for langs ahead of their first run.
func (e *Executor) Warm(langs ...model.Language) {
	for _, lang := range langs {
		if rt, ok := e.config.runtimeFor(lang); ok {
			e.poolFor(rt.Image)
		}
	}
}

// Close shuts down every pool and the docker client.
func (e *Executor) Close() error {
	e.mu.Lock()
	pools := e.pools
	e.pools = make(map[string]*Pool)
	e.mu.Unlock()

	for _, p := range pools {
		p.Stop()
	}
	return e.cli.Close()
}

func (e *Executor) poolFor(img string) *Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pools[img]
	if !ok {
		p = NewPool(e.cli, e.config, img, e.logger)
		p.Start()
		e.pools[img] = p
	}
	return p
}

// execOptions runs the language script in a shell with the code in $CODE,
// so the snippet never has to be quoted into the command line.
func execOptions(rt Runtime, code string) container.ExecOptions {
	return container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Env:          []string{"CODE=" + code},
		WorkingDir:   "/tmp",
		Cmd:          []string{"sh", "-c", rt.Script},
	}
}

// Execute runs req.Code in a sandboxed container for req.Language.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	rt, ok := e.config.runtimeFor(req.Language)
	if !ok {
		return nil, fmt.Errorf("%w: %q", executor.ErrUnsupportedLanguage, string(req.Language))
	}

	start := time.Now()

	containerID, err := e.poolFor(rt.Image).GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execOptions(rt, req.Code))
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer

	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the combined stream into stdout and stderr.
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	result := &executor.ExecutionResult{}

	select {
	case <-done:
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			result.ExitCode = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		// Closing the hijacked connection unblocks StdCopy; wait for it so the
		// buffers are no longer written to.
		attachResp.Close()
		<-done
		result.ExitCode = executor.TimeoutExitCode
		result.TimedOut = true
		stderr.WriteString("\nExecution timed out.\n")
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.Duration = time.Since(start)

	e.logger.Debug("snippet executed",
		slog.String("language", string(req.Language)),
		slog.Int("exitCode", result.ExitCode),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}
