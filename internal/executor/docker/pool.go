package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Pool keeps pre-warmed containers of one toolchain image ready for runs.
// Each container serves exactly one run and is then removed.
type Pool struct {
	cli        *client.Client
	config     Config
	image      string
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewPool initializes a pool for img. Nothing is created until Start.
func NewPool(cli *client.Client, cfg Config, img string, logger *slog.Logger) *Pool {
	size := cfg.PoolSize
	if size < 1 {
		size = 1
	}
	return &Pool{
		cli:        cli,
		config:     cfg,
		image:      img,
		logger:     logger.With(slog.String("image", img)),
		containers: make(chan string, size),
		done:       make(chan struct{}),
	}
}

// Start pulls the image and begins filling the pool in the background.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting docker container pool manager", slog.Int("poolSize", cap(p.containers)))
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and removes all pre-warmed containers.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down docker container pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.removeContainer(id)
			default:
				return
			}
		}
	})
}

// GetContainer returns a ready container ID, blocking until one is available
// or ctx is done.
func (p *Pool) GetContainer(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("docker: pool for %s is stopped", p.image)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// manager pulls the image once, then keeps the pool at capacity.
func (p *Pool) manager() {
	defer p.wg.Done()

	for !p.pullImage() {
		select {
		case <-p.done:
			return
		case <-time.After(5 * time.Second):
		}
	}

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.containers) >= cap(p.containers) {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		id, err := p.createContainer()
		if err != nil {
			p.logger.Error("failed to create pre-warmed container", slog.String("error", err.Error()))
			time.Sleep(1 * time.Second) // backoff on failure
			continue
		}

		select {
		case p.containers <- id:
		case <-p.done:
			p.removeContainer(id)
			return
		}
	}
}

// pullImage blocks until the image is present locally.
func (p *Pool) pullImage() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	p.logger.Info("ensuring docker image is available")
	reader, err := p.cli.ImagePull(ctx, p.image, image.PullOptions{})
	if err != nil {
		p.logger.Error("failed to pull image", slog.String("error", err.Error()))
		return false
	}
	defer reader.Close()

	// The pull only finishes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		p.logger.Error("failed to pull image", slog.String("error", err.Error()))
		return false
	}
	p.logger.Info("docker image is ready")
	return true
}

// containerConfig starts an idle container as an unprivileged user.
// HOME and DENO_DIR point into /tmp because the root filesystem is read-only.
func containerConfig(img string) *container.Config {
	return &container.Config{
		Image: img,
		Cmd:   []string{"sleep", "infinity"},
		User:  "nobody",
		Env:   []string{"HOME=/tmp", "DENO_DIR=/tmp/deno"},
	}
}

// hostConfig isolates a container: no network, capped memory and CPU, and a
// read-only root with only /tmp writable.
func hostConfig(cfg Config) *container.HostConfig {
	tmpfs := "rw,exec,nosuid,mode=1777"
	if cfg.TmpfsSize != "" {
		tmpfs += ",size=" + cfg.TmpfsSize
	}
	return &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   cfg.MemoryLimit,
			NanoCPUs: int64(cfg.CPULimit * 1e9),
		},
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{"/tmp": tmpfs},
	}
}

func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := p.cli.ContainerCreate(ctx, containerConfig(p.image), hostConfig(p.config), nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.removeContainer(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}

func (p *Pool) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}
