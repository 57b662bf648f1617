package service

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type DockerExecutor struct {
	client             *client.Client
	log                loggerv2.Logger
	mu                 sync.Mutex
	containerPool      map[string]chan string
	containerPoolSize  int
	defaultMemoryLimit int64
	workDir            string
}

func NewDockerExecutor(ctx context.Context, log loggerv2.Logger, containerPoolSize, defaultMemoryLimitMB int, workDir string) (*DockerExecutor, error) {
	c, err := client.New(client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if _, err = c.Ping(ctx, client.PingOptions{}); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping docker daemon: %w", err)
	}
	if containerPoolSize <= 0 {
		containerPoolSize = 1
	}
	if defaultMemoryLimitMB <= 0 {
		defaultMemoryLimitMB = 512
	}
	if workDir == "" {
		workDir = "/app"
	}
	return &DockerExecutor{
		client:             c,
		log:                log,
		containerPool:      make(map[string]chan string),
		containerPoolSize:  containerPoolSize,
		defaultMemoryLimit: int64(defaultMemoryLimitMB) * 1024 * 1024,
		workDir:            workDir,
	}, nil
}

func (e *DockerExecutor) WorkDir() string {
	return e.workDir
}

func (e *DockerExecutor) Run(ctx context.Context, task *RunTask) (*RunResult, error) {
	workerID, err := e.acquireWorker(ctx, task.Image)
	if err != nil {
		return nil, fmt.Errorf("acquire worker failed: %w", err)
	}
	healthy := true
	defer func() {
		// 超时或拷贝失败的容器不再放回池中
		e.releaseWorker(context.WithoutCancel(ctx), task.Image, workerID, healthy)
	}()

	archive, err := BuildArchive(e.workDir, task.Files)
	if err != nil {
		return nil, fmt.Errorf("build archive failed: %w", err)
	}
	_, err = e.client.CopyToContainer(ctx, workerID, client.CopyToContainerOptions{
		AllowOverwriteDirWithFile: true,
		DestinationPath:           "/",
		Content:                   bytes.NewReader(archive),
	})
	if err != nil {
		healthy = false
		return nil, fmt.Errorf("copy source failed: %w", err)
	}

	stdout, stderr, exitCode, err := e.execWithAttach(ctx, workerID, task.Command, e.workDir)
	if err != nil {
		healthy = false
		return &RunResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}, err
	}
	return &RunResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}, nil
}

func (e *DockerExecutor) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for image, ch := range e.containerPool {
		close(ch)
		for id := range ch {
			if _, err := e.client.ContainerRemove(ctx, id, client.ContainerRemoveOptions{Force: true}); err != nil {
				e.log.ErrorContext(ctx, "remove container failed", logger.String("containerID", id), logger.Error(err))
			}
		}
		delete(e.containerPool, image)
	}
	return e.client.Close()
}

func (e *DockerExecutor) EnsureImage(ctx context.Context, image string) error {
	// 首先检查本地是否已存在该镜像
	filters := client.Filters{}
	filters.Add("reference", image)
	images, err := e.client.ImageList(ctx, client.ImageListOptions{
		Filters: filters,
	})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	if len(images.Items) > 0 {
		return nil
	}

	e.log.InfoContext(ctx, "Local image not found, pulling from registry", logger.String("image", image))
	reader, err := e.client.ImagePull(ctx, image, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (e *DockerExecutor) pool(ctx context.Context, image string) (chan string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.containerPool[image]; ok {
		return ch, nil
	}
	ch := make(chan string, e.containerPoolSize)
	for i := 0; i < e.containerPoolSize; i++ {
		id, err := e.startWorkerContainer(ctx, image)
		if err != nil {
			close(ch)
			for started := range ch {
				e.removeContainer(ctx, started)
			}
			return nil, fmt.Errorf("start worker failed: %w", err)
		}
		ch <- id
	}
	e.containerPool[image] = ch
	return ch, nil
}

func (e *DockerExecutor) acquireWorker(ctx context.Context, image string) (string, error) {
	ch, err := e.pool(ctx, image)
	if err != nil {
		return "", err
	}
	select {
	case id := <-ch:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (e *DockerExecutor) releaseWorker(ctx context.Context, image, id string, healthy bool) {
	e.mu.Lock()
	ch := e.containerPool[image]
	e.mu.Unlock()
	if ch == nil {
		e.removeContainer(ctx, id)
		return
	}
	if healthy {
		ch <- id
		return
	}
	e.removeContainer(ctx, id)
	newID, err := e.startWorkerContainer(ctx, image)
	if err != nil {
		e.log.ErrorContext(ctx, "restart worker failed", logger.String("image", image), logger.Error(err))
		return
	}
	ch <- newID
}

func (e *DockerExecutor) removeContainer(ctx context.Context, id string) {
	if _, err := e.client.ContainerRemove(ctx, id, client.ContainerRemoveOptions{Force: true}); err != nil {
		e.log.ErrorContext(ctx, "remove worker failed", logger.String("containerID", id), logger.Error(err))
	}
}

func (e *DockerExecutor) startWorkerContainer(ctx context.Context, image string) (string, error) {
	cfg := &container.Config{
		Image:      image,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: e.workDir,
	}
	host := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:     e.defaultMemoryLimit,
			MemorySwap: -1,         // 禁用 swap
			NanoCPUs:   1000000000, // 限制为1个CPU
		},
	}
	resp, err := e.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     cfg,
		HostConfig: host,
	})
	if err != nil {
		return "", err
	}
	if _, err := e.client.ContainerStart(ctx, resp.ID, client.ContainerStartOptions{}); err != nil {
		e.removeContainer(ctx, resp.ID)
		return "", err
	}
	return resp.ID, nil
}

// BuildArchive packs files under dir into a tar stream rooted at "/".
func BuildArchive(dir string, files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range names {
		content := files[name]
		hdr := &tar.Header{
			Name: path.Join(dir, name),
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(content); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *DockerExecutor) execWithAttach(ctx context.Context, containerID string, cmd []string, workDir string) (string, string, int, error) {
	created, err := e.client.ExecCreate(ctx, containerID, client.ExecCreateOptions{
		Cmd:          cmd,
		WorkingDir:   workDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", "", -1, err
	}
	attach, err := e.client.ExecAttach(ctx, created.ID, client.ExecAttachOptions{})
	if err != nil {
		return "", "", -1, err
	}
	defer attach.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, attach.Reader)
		done <- err
	}()

	select {
	case err = <-done:
		if err != nil && err != io.EOF {
			return "", "", -1, err
		}
	case <-ctx.Done():
		// 关闭连接以结束 StdCopy, 之后才能安全读取缓冲区
		attach.Close()
		<-done
		return stdoutBuf.String(), stderrBuf.String(), -1, ctx.Err()
	}

	inspect, err := e.client.ExecInspect(ctx, created.ID, client.ExecInspectOptions{})
	if err != nil {
		return stdoutBuf.String(), stderrBuf.String(), -1, err
	}
	return stdoutBuf.String(), stderrBuf.String(), inspect.ExitCode, nil
}
