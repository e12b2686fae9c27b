package registry

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestDecodeToken(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("AWS:s3cr3t:with:colons"))
	user, pass, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if user != "AWS" {
		t.Fatalf("unexpected user: %s", user)
	}
	if pass != "s3cr3t:with:colons" {
		t.Fatalf("password split at wrong colon: %s", pass)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeToken("not base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	plain := base64.StdEncoding.EncodeToString([]byte("nopassword"))
	if _, _, err := DecodeToken(plain); err == nil {
		t.Fatalf("expected error for token without separator")
	}
}

func TestCredentialsHost(t *testing.T) {
	creds := Credentials{Endpoint: "https://123456789.dkr.ecr.us-east-1.amazonaws.com"}
	if got := creds.Host(); got != "123456789.dkr.ecr.us-east-1.amazonaws.com" {
		t.Fatalf("unexpected host: %s", got)
	}
}

func TestCredentialsExpired(t *testing.T) {
	now := time.Now()
	if (Credentials{}).Expired(now) {
		t.Fatalf("zero expiry should never be expired")
	}
	if (Credentials{ExpiresAt: now.Add(time.Hour)}).Expired(now) {
		t.Fatalf("future expiry reported expired")
	}
	if !(Credentials{ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Fatalf("past expiry not reported expired")
	}
}
