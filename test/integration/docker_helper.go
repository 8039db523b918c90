package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"

	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
)

const (
	integrationEnvVar = "PKGMCP_INTEGRATION_DOCKER"
	alpineImage       = "alpine:3.20"
)

// requireDocker skips the test unless Docker integration tests are enabled.
func requireDocker(t *testing.T) {
	if os.Getenv(integrationEnvVar) == "" {
		t.Skipf("Skipping Docker integration test, set %s to run it", integrationEnvVar)
	}
}

// alpineRunner is a pkgmanager.Runner that executes commands inside a
// disposable Alpine container, so the tests can run real apk invocations
// without touching the host.
type alpineRunner struct {
	client      *client.Client
	containerID string
}

// newAlpineRunner pulls the Alpine image, starts a long-lived container and
// registers its removal as test cleanup.
func newAlpineRunner(t *testing.T) *alpineRunner {
	ctx := context.Background()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	require.NoError(t, err, "Failed to create Docker client")

	pullResp, err := cli.ImagePull(ctx, alpineImage, image.PullOptions{})
	require.NoError(t, err, "Failed to pull image %s", alpineImage)
	_, _ = io.Copy(io.Discard, pullResp)
	pullResp.Close()

	containerName := fmt.Sprintf("pkgmcp-test-%s", strings.ToLower(ulid.Make().String()))
	created, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image: alpineImage,
			Cmd:   []string{"sleep", "infinity"},
		},
		nil, nil,
		&ocispec.Platform{OS: "linux"},
		containerName,
	)
	require.NoError(t, err, "Failed to create container")

	err = cli.ContainerStart(ctx, created.ID, container.StartOptions{})
	require.NoError(t, err, "Failed to start container")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cli.ContainerRemove(ctx, created.ID, container.RemoveOptions{Force: true}); err != nil {
			t.Logf("Warning: Failed to remove container %s during cleanup: %v", containerName, err)
		}
	})

	return &alpineRunner{client: cli, containerID: created.ID}
}

// Run executes the command inside the container and captures its output and
// exit code the same way the OS runner does on the host.
func (r *alpineRunner) Run(ctx context.Context, cmd pkgmanager.Command) (*model.ExecResult, error) {
	env := make([]string, 0, len(cmd.Env))
	for k, v := range cmd.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	execResp, err := r.client.ContainerExecCreate(ctx, r.containerID, container.ExecOptions{
		Cmd:          append([]string{cmd.Path}, cmd.Args...),
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create exec: %w", err)
	}

	attachResp, err := r.client.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not attach exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil {
		return nil, fmt.Errorf("could not read exec output: %w", err)
	}

	inspect, err := r.client.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("could not inspect exec: %w", err)
	}

	return &model.ExecResult{
		Stdout:   lossyUTF8(stdout.Bytes()),
		Stderr:   lossyUTF8(stderr.Bytes()),
		ExitCode: inspect.ExitCode,
	}, nil
}

// lossyUTF8 mirrors the OS runner's capture contract: output is always valid
// UTF-8, invalid sequences become the replacement character.
func lossyUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
