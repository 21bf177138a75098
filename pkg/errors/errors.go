package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDomain    = errors.New("invalid domain name")
	ErrInvalidUniqueID  = errors.New("invalid unique id")
	ErrInvalidRuleID    = errors.New("invalid rule id")
	ErrInvalidPeriod    = errors.New("invalid analytics period")
	ErrUnsafePath       = errors.New("path outside allowed log directory")
	ErrFileNotFound     = errors.New("file not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("performance store unavailable")
	ErrReadTimeout      = errors.New("read timeout")
)

func NewDomainError(domain string) error {
	return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
}

func NewUniqueIDError(id string) error {
	return fmt.Errorf("%w: %q", ErrInvalidUniqueID, id)
}

func NewRuleIDError(id string) error {
	return fmt.Errorf("%w: %q", ErrInvalidRuleID, id)
}

func NewUnsafePathError(path string) error {
	return fmt.Errorf("%w: %s", ErrUnsafePath, path)
}

func NewReadTimeoutError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrReadTimeout, path, err)
}

func NewPeriodError(period string) error {
	return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
}

func NewFileError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, reason)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewStoreError(op string, err error) error {
	return fmt.Errorf("%w: op=%s: %v", ErrStoreUnavailable, op, err)
}
