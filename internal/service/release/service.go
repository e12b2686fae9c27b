// Package release orchestrates the packaging pipeline: build a sub-project,
// archive its output, stage a latest alias and publish every remote key
// variant the project requires.
package release

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/xhumiq/filesync-deploy/internal/archive"
	"github.com/xhumiq/filesync-deploy/internal/buildtool"
	"github.com/xhumiq/filesync-deploy/internal/project"
	"github.com/xhumiq/filesync-deploy/internal/version"
	"github.com/xhumiq/filesync-deploy/internal/workspace"
	"github.com/xhumiq/filesync-deploy/pkg/config"
)

// Uploader publishes a local file under an object-storage key.
type Uploader interface {
	Upload(ctx context.Context, key, path string) error
}

// Presigner issues time-limited GET URLs for stored artifacts.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Request contains packaging parameters.
type Request struct {
	// Project selects the sub-project; empty means the default project.
	Project string
	// APIHost tags host-qualified builds; required for those projects.
	APIHost string
	// Version overrides git-derived version resolution when non-empty.
	Version string
}

// Result summarizes one packaging run.
type Result struct {
	RunID         string
	Project       string
	Version       string
	VersionedFile string
	LatestFile    string
	RemoteKeys    []string
}

// Service coordinates the packaging steps. Every step is fatal: the first
// failure aborts the run with no rollback, and re-running is the recovery
// path since all local and remote writes target deterministic names.
type Service struct {
	cfg     config.DeployConfig
	build   buildtool.Runner
	store   Uploader
	presign Presigner
	ws      *workspace.Manager
	logger  *slog.Logger

	resolveVersion func(ctx context.Context, dir string) (string, error)
}

// New creates a release service. store and presign may be nil for commands
// that do not upload.
func New(cfg config.DeployConfig, build buildtool.Runner, store Uploader, presign Presigner, ws *workspace.Manager, logger *slog.Logger) *Service {
	if build == nil {
		build = buildtool.Make{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:            cfg,
		build:          build,
		store:          store,
		presign:        presign,
		ws:             ws,
		logger:         logger,
		resolveVersion: version.Resolve,
	}
}

// step is one named unit of the pipeline; a failure wraps the step name so
// the operator sees exactly where the run stopped.
type step struct {
	name string
	run  func(ctx context.Context) error
}

func (s *Service) runSteps(ctx context.Context, log *slog.Logger, steps []step) error {
	for _, st := range steps {
		log.Info("step started", "step", st.name)
		started := time.Now()
		if err := st.run(ctx); err != nil {
			log.Error("step failed", "step", st.name, "error", err)
			return fmt.Errorf("step %s: %w", st.name, err)
		}
		log.Info("step completed", "step", st.name, "elapsed", time.Since(started).Round(time.Millisecond).String())
	}
	return nil
}

// Package runs the full packaging pipeline for one project.
func (s *Service) Package(ctx context.Context, req Request) (Result, error) {
	proj, err := project.Lookup(req.Project)
	if err != nil {
		return Result{}, err
	}
	if proj.HostQualified && req.APIHost == "" {
		return Result{}, fmt.Errorf("project %s requires an api host", proj.Name)
	}
	if s.store == nil {
		return Result{}, fmt.Errorf("uploader not configured")
	}
	if s.ws == nil {
		return Result{}, fmt.Errorf("workspace manager not configured")
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "project", proj.Name)

	ver, err := s.version(ctx, proj, req.Version)
	if err != nil {
		return Result{}, err
	}
	log = log.With("version", ver)

	archiveName := proj.ArchiveName(ver, req.APIHost)
	latestName := proj.LatestName(req.APIHost)
	remoteKeys := proj.RemoteKeys(s.cfg.KeyPrefix, ver, req.APIHost)

	projectDir := filepath.Join(s.cfg.SourceRoot, proj.Dir)
	artifactPath := filepath.Join(projectDir, filepath.FromSlash(proj.Artifact))

	var stagingDir string
	result := Result{
		RunID:      runID,
		Project:    proj.Name,
		Version:    ver,
		RemoteKeys: remoteKeys,
	}

	steps := []step{
		{name: "build", run: func(ctx context.Context) error {
			buildCtx, cancel := context.WithTimeout(ctx, s.cfg.BuildTimeout)
			defer cancel()
			return s.build.Release(buildCtx, projectDir)
		}},
		{name: "stage", run: func(ctx context.Context) error {
			dir, err := s.ws.Ensure(proj.Name)
			if err != nil {
				return err
			}
			stagingDir = dir
			return s.ws.ClearArtifacts(dir, archiveName, latestName)
		}},
		{name: "archive", run: func(ctx context.Context) error {
			dst := filepath.Join(stagingDir, archiveName)
			if proj.Kind == project.KindDir {
				return archive.ArchiveDir(artifactPath, dst)
			}
			return archive.CompressFile(artifactPath, dst)
		}},
		{name: "latest", run: func(ctx context.Context) error {
			return archive.CopyFile(filepath.Join(stagingDir, archiveName), filepath.Join(stagingDir, latestName))
		}},
		{name: "upload", run: func(ctx context.Context) error {
			src := filepath.Join(stagingDir, latestName)
			for _, key := range remoteKeys {
				uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
				err := s.store.Upload(uploadCtx, key, src)
				cancel()
				if err != nil {
					return err
				}
				log.Info("artifact uploaded", "bucket", s.cfg.Bucket, "key", key)
			}
			return nil
		}},
	}

	if err := s.runSteps(ctx, log, steps); err != nil {
		return Result{}, err
	}

	result.VersionedFile = filepath.Join(stagingDir, archiveName)
	result.LatestFile = filepath.Join(stagingDir, latestName)
	log.Info("packaging completed", "versioned", result.VersionedFile, "latest", result.LatestFile, "keys", len(remoteKeys))
	return result, nil
}

func (s *Service) version(ctx context.Context, proj project.Project, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir := filepath.Join(s.cfg.SourceRoot, proj.Dir)
	ver, err := s.resolveVersion(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("resolve build version: %w", err)
	}
	return ver, nil
}
