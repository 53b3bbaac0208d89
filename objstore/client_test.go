package objstore

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"

	"github.com/vitaliisemenov/corefx/ferr"
)

func TestClientBucketFallsBackToDefault(t *testing.T) {
	c := &Client{defaultBucket: "default-bucket"}

	if got := c.bucket(""); got != "default-bucket" {
		t.Errorf("expected fallback to default bucket, got %q", got)
	}
	if got := c.bucket("explicit-bucket"); got != "explicit-bucket" {
		t.Errorf("expected explicit bucket to win, got %q", got)
	}
}

func TestWrapErrMapsNoSuchKeyToNotFound(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "NoSuchKey", Message: "the key does not exist"}

	wrapped := wrapErr(apiErr)

	var fe *ferr.Error
	if !errors.As(wrapped, &fe) {
		t.Fatalf("expected a *ferr.Error, got %T", wrapped)
	}
	if fe.HTTPStatus() != 404 {
		t.Errorf("expected 404, got %d", fe.HTTPStatus())
	}
}

func TestWrapErrMapsBucketAlreadyExistsToConflict(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "BucketAlreadyExists", Message: "taken"}

	wrapped := wrapErr(apiErr)

	var fe *ferr.Error
	if !errors.As(wrapped, &fe) {
		t.Fatalf("expected a *ferr.Error, got %T", wrapped)
	}
	if fe.HTTPStatus() != 409 {
		t.Errorf("expected 409, got %d", fe.HTTPStatus())
	}
}

func TestWrapErrPassesThroughNil(t *testing.T) {
	if wrapErr(nil) != nil {
		t.Error("expected nil error to stay nil")
	}
}
