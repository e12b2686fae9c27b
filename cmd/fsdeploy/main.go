package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"golang.org/x/term"

	"github.com/xhumiq/filesync-deploy/internal/devserver"
	"github.com/xhumiq/filesync-deploy/internal/docker"
	"github.com/xhumiq/filesync-deploy/internal/registry"
	"github.com/xhumiq/filesync-deploy/internal/service/release"
	"github.com/xhumiq/filesync-deploy/internal/storage"
	"github.com/xhumiq/filesync-deploy/internal/workspace"
	"github.com/xhumiq/filesync-deploy/pkg/config"
	"github.com/xhumiq/filesync-deploy/pkg/logger"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	log := logger.New("fsdeploy", logger.ParseLevel(os.Getenv("FSDEPLOY_LOG_LEVEL")))

	var err error
	switch cmd {
	case "deploy":
		err = commandDeploy(log, args)
	case "image":
		err = commandImage(log, args)
	case "login":
		err = commandLogin(log, args)
	case "push":
		err = commandPush(log, args)
	case "dev":
		err = commandDev(log, args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func commandDeploy(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	projectName := fs.String("project", "", "Project to package (webui, webfs, dufs; default webui)")
	apiHost := fs.String("apihost", "", "API host discriminator (webui builds)")
	versionOverride := fs.String("version", "", "Build version override (default derived from git)")
	fs.Parse(args)

	cfg, err := config.LoadDeployConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	store, err := storage.New(ctx, storage.Options{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Profile:         cfg.CredentialProfile,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return err
	}
	ws, err := workspace.New(cfg.PackageRoot)
	if err != nil {
		return err
	}

	svc := release.New(cfg, nil, store, store, ws, log)
	result, err := svc.Package(ctx, release.Request{
		Project: *projectName,
		APIHost: *apiHost,
		Version: *versionOverride,
	})
	if err != nil {
		return err
	}

	fmt.Printf("packaged %s v%s\n", result.Project, result.Version)
	fmt.Printf("  %s\n", result.VersionedFile)
	fmt.Printf("  %s\n", result.LatestFile)
	for _, key := range result.RemoteKeys {
		fmt.Printf("  s3://%s/%s\n", cfg.Bucket, key)
	}
	return nil
}

func commandImage(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("image", flag.ExitOnError)
	projectName := fs.String("project", "dufs", "Project whose image to build")
	apiHost := fs.String("apihost", "", "API host discriminator (host-qualified artifacts)")
	versionOverride := fs.String("version", "", "Build version override (default derived from git)")
	signedURL := fs.String("signed-url", "", "Signed artifact URL (default: presign the versioned object)")
	fs.Parse(args)

	cfg, err := config.LoadDeployConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	var presign release.Presigner
	if *signedURL == "" {
		store, err := storage.New(ctx, storage.Options{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Profile:         cfg.CredentialProfile,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return err
		}
		presign = store
	}

	cli, err := docker.New(cfg.DockerHost)
	if err != nil {
		return err
	}
	defer cli.Close()
	if err := cli.Ping(ctx); err != nil {
		return err
	}

	svc := release.New(cfg, nil, nil, presign, nil, log)
	result, err := svc.BuildImage(ctx, cli, release.ImageRequest{
		Project:   *projectName,
		APIHost:   *apiHost,
		Version:   *versionOverride,
		SignedURL: *signedURL,
	})
	if err != nil {
		return err
	}
	fmt.Printf("built image %s\n", result.Ref)
	return nil
}

func commandLogin(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	accessKey := fs.String("access-key", "", "AWS access key id (default: shared credential chain)")
	secretKey := fs.String("secret-key", "", "AWS secret access key (supply to avoid prompt)")
	fs.Parse(args)

	cfg, err := config.LoadDeployConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	secret := strings.TrimSpace(*secretKey)
	if strings.TrimSpace(*accessKey) != "" && secret == "" {
		fmt.Print("Secret access key: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Print("\n")
		if err != nil {
			return fmt.Errorf("read secret key: %w", err)
		}
		secret = strings.TrimSpace(string(raw))
	}

	creds, err := registry.Login(ctx, registry.LoginOptions{
		Region:          cfg.Region,
		Profile:         cfg.CredentialProfile,
		CredentialsFile: cfg.CredentialsFile,
		AccessKeyID:     strings.TrimSpace(*accessKey),
		SecretAccessKey: secret,
	})
	if err != nil {
		return err
	}
	if err := registry.Save(creds); err != nil {
		return err
	}
	log.Info("registry login succeeded", "registry", creds.Host(), "expires_at", creds.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("logged in to %s\n", creds.Host())
	return nil
}

func commandPush(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	projectName := fs.String("project", "dufs", "Project whose image to push")
	versionOverride := fs.String("version", "", "Build version override (default derived from git)")
	fs.Parse(args)

	cfg, err := config.LoadDeployConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	cli, err := docker.New(cfg.DockerHost)
	if err != nil {
		return err
	}
	defer cli.Close()
	if err := cli.Ping(ctx); err != nil {
		return err
	}

	svc := release.New(cfg, nil, nil, nil, nil, log)
	pushed, err := svc.PushImage(ctx, cli, release.ImageRequest{
		Project: *projectName,
		Version: *versionOverride,
	})
	if err != nil {
		return err
	}
	for _, ref := range pushed {
		fmt.Printf("pushed %s\n", ref)
	}
	return nil
}

func commandDev(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("dev", flag.ExitOnError)
	fs.Parse(args)

	cfg, err := config.LoadDeployConfig()
	if err != nil {
		return err
	}
	profile, err := devserver.ExportProfile(strings.TrimSpace(fs.Arg(0)))
	if err != nil {
		return err
	}

	srv, err := devserver.New(log, cfg.DevDir)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              cfg.DevAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signalContext()
	defer stop()

	errorCh := make(chan error, 1)
	go func() {
		log.Info("dev server starting", "addr", cfg.DevAddr, "dir", cfg.DevDir, "profile", profile)
		errorCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("dev server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}

func printVersion() {
	fmt.Printf("fsdeploy %s\n", buildVersion)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `fsdeploy packages and publishes filesync build artifacts.

Usage:
  fsdeploy <command> [flags]

Commands:
  deploy    Build a project, archive its output and upload it
  image     Build the container image embedding a published archive
  login     Authenticate to the container registry
  push      Push the built image under version and latest tags
  dev       Serve ./dist/debug on :3030 with the selected env profile
  version   Print the fsdeploy version

Run fsdeploy <command> -h for command flags.
`)
}
