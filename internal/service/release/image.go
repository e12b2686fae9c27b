package release

import (
	"context"
	"fmt"

	"github.com/xhumiq/filesync-deploy/internal/docker"
	"github.com/xhumiq/filesync-deploy/internal/project"
	"github.com/xhumiq/filesync-deploy/internal/registry"
)

// ImageBuilder covers the container operations the pipeline needs.
type ImageBuilder interface {
	BuildImage(ctx context.Context, dir, tag string, buildArgs map[string]*string, onOutput docker.OutputCallback) error
	TagImage(ctx context.Context, source, target string) error
	PushImage(ctx context.Context, ref string, auth docker.RegistryAuth, onOutput docker.OutputCallback) error
}

// ImageRequest contains container build parameters.
type ImageRequest struct {
	Project string
	APIHost string
	Version string
	// SignedURL hands the artifact location to the Dockerfile; when empty a
	// presigned URL for the versioned object is generated in-process.
	SignedURL string
}

// ImageResult reports the image reference that was built.
type ImageResult struct {
	Project string
	Version string
	Ref     string
}

// BuildImage builds the container image embedding a previously published
// archive. Build args pass through uninterpreted.
func (s *Service) BuildImage(ctx context.Context, images ImageBuilder, req ImageRequest) (ImageResult, error) {
	proj, err := project.Lookup(req.Project)
	if err != nil {
		return ImageResult{}, err
	}
	if proj.Image == "" {
		return ImageResult{}, fmt.Errorf("project %s does not ship as a container image", proj.Name)
	}
	if images == nil {
		return ImageResult{}, fmt.Errorf("docker client not configured")
	}

	ver, err := s.version(ctx, proj, req.Version)
	if err != nil {
		return ImageResult{}, err
	}
	log := s.logger.With("project", proj.Name, "version", ver)

	fileName := proj.ArchiveName(ver, req.APIHost)
	signedURL := req.SignedURL
	if signedURL == "" {
		if s.presign == nil {
			return ImageResult{}, fmt.Errorf("no signed url given and no storage client to presign one")
		}
		key := proj.RemoteKeys(s.cfg.KeyPrefix, ver, req.APIHost)[0]
		signedURL, err = s.presign.PresignGet(ctx, key, s.cfg.SignedURLTTL)
		if err != nil {
			return ImageResult{}, err
		}
		log.Info("presigned artifact url", "key", key, "ttl", s.cfg.SignedURLTTL.String())
	}

	ref := proj.ImageRef("", s.cfg.ImageRepo, "v"+ver)
	args := map[string]*string{
		"SIGNED_URL": &signedURL,
		"FILE_NAME":  &fileName,
	}
	onOutput := func(line string) {
		log.Debug("image build output", "line", line)
	}
	buildCtx, cancel := context.WithTimeout(ctx, s.cfg.BuildTimeout)
	defer cancel()
	if err := images.BuildImage(buildCtx, s.cfg.ImageContext, ref, args, onOutput); err != nil {
		return ImageResult{}, err
	}
	log.Info("image built", "ref", ref)
	return ImageResult{Project: proj.Name, Version: ver, Ref: ref}, nil
}

// PushImage tags the locally built image into the registry under the version
// tag and latest, then pushes both. Login must have happened first; a missing
// or expired token fails with registry.ErrNotLoggedIn.
func (s *Service) PushImage(ctx context.Context, images ImageBuilder, req ImageRequest) ([]string, error) {
	proj, err := project.Lookup(req.Project)
	if err != nil {
		return nil, err
	}
	if proj.Image == "" {
		return nil, fmt.Errorf("project %s does not ship as a container image", proj.Name)
	}
	if images == nil {
		return nil, fmt.Errorf("docker client not configured")
	}

	creds, err := registry.Load()
	if err != nil {
		return nil, err
	}
	host := s.cfg.RegistryHost
	if host == "" {
		host = creds.Host()
	}
	if host == "" {
		return nil, fmt.Errorf("registry host not configured")
	}

	ver, err := s.version(ctx, proj, req.Version)
	if err != nil {
		return nil, err
	}
	log := s.logger.With("project", proj.Name, "version", ver, "registry", host)

	local := proj.ImageRef("", s.cfg.ImageRepo, "v"+ver)
	auth := docker.RegistryAuth{
		Username:      creds.Username,
		Password:      creds.Password,
		ServerAddress: host,
	}

	pushed := make([]string, 0, 2)
	for _, tag := range []string{"v" + ver, "latest"} {
		ref := proj.ImageRef(host, s.cfg.ImageRepo, tag)
		if err := images.TagImage(ctx, local, ref); err != nil {
			return pushed, err
		}
		if err := images.PushImage(ctx, ref, auth, func(line string) {
			log.Debug("image push output", "line", line)
		}); err != nil {
			return pushed, err
		}
		log.Info("image pushed", "ref", ref)
		pushed = append(pushed, ref)
	}
	return pushed, nil
}
