package domain

import "errors"

var (
	// ErrMissingArtifact is returned when a path handed to the packager does not exist.
	ErrMissingArtifact = errors.New("artifact does not exist")
	// ErrVerification is returned when a verification stage fails its checks.
	ErrVerification = errors.New("variant verification failed")
	// ErrInvalidRetryPolicy is returned by RetryPolicy.Validate.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")
)
