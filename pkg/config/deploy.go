package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DeployConfig holds runtime configuration for the fsdeploy tool.
type DeployConfig struct {
	Environment       string
	SourceRoot        string
	PackageRoot       string
	Bucket            string
	KeyPrefix         string
	Region            string
	CredentialProfile string
	CredentialsFile   string
	RegistryHost      string
	ImageRepo         string
	ImageContext      string
	DockerHost        string
	BuildTimeout      time.Duration
	UploadTimeout     time.Duration
	SignedURLTTL      time.Duration
	DevAddr           string
	DevDir            string
}

// fileOverlay mirrors the optional fsdeploy.yaml config file. Only fields
// present in the file override the environment-derived defaults.
type fileOverlay struct {
	Environment       string `yaml:"environment"`
	SourceRoot        string `yaml:"source_root"`
	PackageRoot       string `yaml:"package_root"`
	Bucket            string `yaml:"bucket"`
	KeyPrefix         string `yaml:"key_prefix"`
	Region            string `yaml:"region"`
	CredentialProfile string `yaml:"credential_profile"`
	CredentialsFile   string `yaml:"credentials_file"`
	RegistryHost      string `yaml:"registry_host"`
	ImageRepo         string `yaml:"image_repo"`
	ImageContext      string `yaml:"image_context"`
	DockerHost        string `yaml:"docker_host"`
	BuildTimeoutSecs  int    `yaml:"build_timeout_seconds"`
	UploadTimeoutSecs int    `yaml:"upload_timeout_seconds"`
	SignedURLTTLSecs  int    `yaml:"signed_url_ttl_seconds"`
	DevAddr           string `yaml:"dev_addr"`
	DevDir            string `yaml:"dev_dir"`
}

// LoadDeployConfig constructs a DeployConfig from environment variables, then
// overlays the YAML config file named by FSDEPLOY_CONFIG (default
// ./fsdeploy.yaml) when it exists.
func LoadDeployConfig() (DeployConfig, error) {
	cfg := DeployConfig{
		Environment:       GetString("APP_ENV", "development"),
		SourceRoot:        GetString("FSDEPLOY_SOURCE_ROOT", "."),
		PackageRoot:       GetString("FSDEPLOY_PACKAGE_ROOT", "/ntc/packages/filesync"),
		Bucket:            GetString("FSDEPLOY_BUCKET", "deploy"),
		KeyPrefix:         GetString("FSDEPLOY_KEY_PREFIX", "packages"),
		Region:            GetString("AWS_REGION", "us-east-1"),
		CredentialProfile: GetString("FSDEPLOY_CREDENTIAL_PROFILE", "deploy"),
		CredentialsFile:   GetString("FSDEPLOY_CREDENTIALS_FILE", ""),
		RegistryHost:      GetString("FSDEPLOY_REGISTRY_HOST", ""),
		ImageRepo:         GetString("FSDEPLOY_IMAGE_REPO", "filesync/dufs"),
		ImageContext:      GetString("FSDEPLOY_IMAGE_CONTEXT", "build/dufs"),
		DockerHost:        GetString("DOCKER_HOST", ""),
		BuildTimeout:      time.Duration(GetInt("BUILD_TIMEOUT_SECONDS", 1800)) * time.Second,
		UploadTimeout:     time.Duration(GetInt("UPLOAD_TIMEOUT_SECONDS", 600)) * time.Second,
		SignedURLTTL:      time.Duration(GetInt("SIGNED_URL_TTL_SECONDS", 900)) * time.Second,
		DevAddr:           GetString("FSDEPLOY_DEV_ADDR", ":3030"),
		DevDir:            GetString("FSDEPLOY_DEV_DIR", "./dist/debug"),
	}

	path := GetString("FSDEPLOY_CONFIG", "fsdeploy.yaml")
	if err := cfg.applyFile(path); err != nil {
		return DeployConfig{}, err
	}
	return cfg, nil
}

func (c *DeployConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if overlay.Environment != "" {
		c.Environment = overlay.Environment
	}
	if overlay.SourceRoot != "" {
		c.SourceRoot = overlay.SourceRoot
	}
	if overlay.PackageRoot != "" {
		c.PackageRoot = overlay.PackageRoot
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.KeyPrefix != "" {
		c.KeyPrefix = overlay.KeyPrefix
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.CredentialProfile != "" {
		c.CredentialProfile = overlay.CredentialProfile
	}
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
	if overlay.RegistryHost != "" {
		c.RegistryHost = overlay.RegistryHost
	}
	if overlay.ImageRepo != "" {
		c.ImageRepo = overlay.ImageRepo
	}
	if overlay.ImageContext != "" {
		c.ImageContext = overlay.ImageContext
	}
	if overlay.DockerHost != "" {
		c.DockerHost = overlay.DockerHost
	}
	if overlay.BuildTimeoutSecs > 0 {
		c.BuildTimeout = time.Duration(overlay.BuildTimeoutSecs) * time.Second
	}
	if overlay.UploadTimeoutSecs > 0 {
		c.UploadTimeout = time.Duration(overlay.UploadTimeoutSecs) * time.Second
	}
	if overlay.SignedURLTTLSecs > 0 {
		c.SignedURLTTL = time.Duration(overlay.SignedURLTTLSecs) * time.Second
	}
	if overlay.DevAddr != "" {
		c.DevAddr = overlay.DevAddr
	}
	if overlay.DevDir != "" {
		c.DevDir = overlay.DevDir
	}
	return nil
}
