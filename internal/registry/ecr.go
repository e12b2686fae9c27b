// Package registry authenticates to the container registry (ECR).
package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
)

// LoginOptions selects the AWS identity used for the token exchange.
type LoginOptions struct {
	Region          string
	Profile         string
	CredentialsFile string
	// AccessKeyID/SecretAccessKey, when both set, bypass the shared
	// credential chain entirely.
	AccessKeyID     string
	SecretAccessKey string
}

// Credentials is a registry user/password pair decoded from an ECR
// authorization token, valid until ExpiresAt.
type Credentials struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Endpoint  string    `json:"endpoint"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Host returns the registry host without the URL scheme, suitable for image
// references.
func (c Credentials) Host() string {
	host := strings.TrimPrefix(c.Endpoint, "https://")
	return strings.TrimPrefix(host, "http://")
}

// Expired reports whether the token can no longer be used for pushes.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Login exchanges AWS credentials for registry credentials. Every call
// performs a fresh token exchange; nothing is reused.
func Login(ctx context.Context, opts LoginOptions) (Credentials, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	} else {
		if opts.Profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
		}
		if opts.CredentialsFile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedCredentialsFiles([]string{opts.CredentialsFile}))
		}
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return Credentials{}, fmt.Errorf("load aws config: %w", err)
	}

	out, err := ecr.NewFromConfig(awsCfg).GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return Credentials{}, fmt.Errorf("ecr authorization token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return Credentials{}, fmt.Errorf("ecr returned no authorization data")
	}
	data := out.AuthorizationData[0]
	if data.AuthorizationToken == nil {
		return Credentials{}, fmt.Errorf("ecr returned empty authorization token")
	}

	user, pass, err := DecodeToken(*data.AuthorizationToken)
	if err != nil {
		return Credentials{}, err
	}
	creds := Credentials{Username: user, Password: pass}
	if data.ProxyEndpoint != nil {
		creds.Endpoint = *data.ProxyEndpoint
	}
	if data.ExpiresAt != nil {
		creds.ExpiresAt = *data.ExpiresAt
	}
	return creds, nil
}

// DecodeToken splits a base64 ECR authorization token into its user and
// password halves.
func DecodeToken(token string) (string, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decode authorization token: %w", err)
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok || user == "" {
		return "", "", fmt.Errorf("authorization token is not a user:password pair")
	}
	return user, pass, nil
}
