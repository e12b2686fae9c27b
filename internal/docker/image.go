package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	imagetypes "github.com/docker/docker/api/types/image"
	registrytypes "github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/archive"
)

// OutputCallback is invoked with incremental daemon progress messages.
type OutputCallback func(string)

// RegistryAuth carries credentials for a registry push.
type RegistryAuth struct {
	Username      string
	Password      string
	ServerAddress string
}

// BuildImage builds an image from the context directory using its Dockerfile,
// passing buildArgs through uninterpreted.
func (c *Client) BuildImage(ctx context.Context, dir, tag string, buildArgs map[string]*string, onOutput OutputCallback) error {
	if c == nil || c.inner == nil {
		return fmt.Errorf("docker client not initialized")
	}
	if dir == "" {
		return fmt.Errorf("build context directory cannot be empty")
	}
	if tag == "" {
		return fmt.Errorf("image tag cannot be empty")
	}
	buildCtx, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("create build context: %w", err)
	}
	defer buildCtx.Close()

	opts := types.ImageBuildOptions{
		Tags:        []string{tag},
		Remove:      true,
		ForceRemove: true,
		BuildArgs:   buildArgs,
	}
	resp, err := c.inner.ImageBuild(ctx, buildCtx, opts)
	if err != nil {
		return fmt.Errorf("docker image build: %w", err)
	}
	defer resp.Body.Close()
	if err := decodeStream(resp.Body, onOutput); err != nil {
		return fmt.Errorf("docker image build: %w", err)
	}
	return nil
}

// TagImage applies an additional reference to an existing local image.
func (c *Client) TagImage(ctx context.Context, source, target string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return fmt.Errorf("image references cannot be empty")
	}
	if err := c.inner.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("tag image %s as %s: %w", source, target, err)
	}
	return nil
}

// PushImage pushes ref to its registry using the provided credentials.
func (c *Client) PushImage(ctx context.Context, ref string, auth RegistryAuth, onOutput OutputCallback) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("image reference cannot be empty")
	}
	encoded, err := registrytypes.EncodeAuthConfig(registrytypes.AuthConfig{
		Username:      auth.Username,
		Password:      auth.Password,
		ServerAddress: auth.ServerAddress,
	})
	if err != nil {
		return fmt.Errorf("encode registry auth: %w", err)
	}
	rc, err := c.inner.ImagePush(ctx, ref, imagetypes.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return fmt.Errorf("docker image push: %w", err)
	}
	defer rc.Close()
	if err := decodeStream(rc, onOutput); err != nil {
		return fmt.Errorf("push %s: %w", ref, err)
	}
	return nil
}

// streamMessage is the JSON message shape the daemon emits for build and
// push progress.
type streamMessage struct {
	Stream      string `json:"stream"`
	Status      string `json:"status"`
	ID          string `json:"id"`
	Progress    string `json:"progress"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

func (m streamMessage) errorMessage() string {
	if msg := strings.TrimSpace(m.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(m.ErrorDetail.Message)
}

func (m streamMessage) render() string {
	if s := strings.TrimSpace(m.Stream); s != "" {
		return s
	}
	if m.Status == "" {
		return ""
	}
	parts := make([]string, 0, 3)
	if id := strings.TrimSpace(m.ID); id != "" {
		parts = append(parts, id)
	}
	parts = append(parts, strings.TrimSpace(m.Status))
	if p := strings.TrimSpace(m.Progress); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// decodeStream drains a daemon progress stream, forwarding rendered lines and
// converting embedded error messages into a returned error.
func decodeStream(r io.Reader, onOutput OutputCallback) error {
	decoder := json.NewDecoder(r)
	for {
		var msg streamMessage
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decode daemon output: %w", err)
		}
		if errMsg := msg.errorMessage(); errMsg != "" {
			return fmt.Errorf("%s", errMsg)
		}
		if line := msg.render(); line != "" && onOutput != nil {
			onOutput(line)
		}
	}
}
