package utils

import (
	"github.com/cockroachdb/errors"
)

// ErrFeatureNotSupported is returned from RequestGPUFeatures when the device
// lacks something the sample cannot run without.
var ErrFeatureNotSupported = errors.New("required device feature not supported")

// ErrVerificationFailed wraps every colour mismatch reported in --verify mode.
var ErrVerificationFailed = errors.New("rendered frame does not match expected colours")

func FeatureError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format+" is not supported", args...), ErrFeatureNotSupported)
}
