package errors

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrInvalidDomain", ErrInvalidDomain, "invalid domain name"},
		{"ErrInvalidUniqueID", ErrInvalidUniqueID, "invalid unique id"},
		{"ErrInvalidRuleID", ErrInvalidRuleID, "invalid rule id"},
		{"ErrInvalidPeriod", ErrInvalidPeriod, "invalid analytics period"},
		{"ErrUnsafePath", ErrUnsafePath, "path outside allowed log directory"},
		{"ErrFileNotFound", ErrFileNotFound, "file not found"},
		{"ErrConfigInvalid", ErrConfigInvalid, "invalid configuration"},
		{"ErrStoreUnavailable", ErrStoreUnavailable, "performance store unavailable"},
		{"ErrReadTimeout", ErrReadTimeout, "read timeout"},
	}

	for _, tc := range sentinelErrors {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Errorf("%s is nil", tc.name)
				return
			}
			if tc.err.Error() != tc.msg {
				t.Errorf("%s: got %q, want %q", tc.name, tc.err.Error(), tc.msg)
			}
		})
	}
}

func TestNewDomainError(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   string
	}{
		{
			name:   "traversal attempt",
			domain: "../etc",
			want:   `invalid domain name: "../etc"`,
		},
		{
			name:   "empty domain",
			domain: "",
			want:   `invalid domain name: ""`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewDomainError(tc.domain)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tc.want {
				t.Errorf("got %q, want %q", err.Error(), tc.want)
			}
			if !errors.Is(err, ErrInvalidDomain) {
				t.Errorf("error should wrap ErrInvalidDomain")
			}
		})
	}
}

func TestNewUnsafePathError(t *testing.T) {
	err := NewUnsafePathError("/etc/passwd")
	if err.Error() != "path outside allowed log directory: /etc/passwd" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrUnsafePath) {
		t.Errorf("error should wrap ErrUnsafePath")
	}
}

func TestNewReadTimeoutError(t *testing.T) {
	err := NewReadTimeoutError("/var/log/nginx/access.log", errors.New("context deadline exceeded"))
	want := "read timeout: /var/log/nginx/access.log: context deadline exceeded"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrReadTimeout) {
		t.Errorf("error should wrap ErrReadTimeout")
	}
}

func TestNewFileError(t *testing.T) {
	err := NewFileError("/nonexistent/file.log", errors.New("no such file"))
	want := "file not found: /nonexistent/file.log: no such file"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("error should wrap ErrFileNotFound")
	}
}

func TestNewConfigError(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value interface{}
		want  string
	}{
		{
			name:  "invalid int field",
			field: "logs.batch_size",
			value: -1,
			want:  "invalid configuration: field=logs.batch_size value=-1",
		},
		{
			name:  "invalid string field",
			field: "analytics.window",
			value: "soon",
			want:  "invalid configuration: field=analytics.window value=soon",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewConfigError(tc.field, tc.value)
			if err.Error() != tc.want {
				t.Errorf("got %q, want %q", err.Error(), tc.want)
			}
			if !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("error should wrap ErrConfigInvalid")
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	t.Run("wrap and unwrap unique id error", func(t *testing.T) {
		if !errors.Is(NewUniqueIDError("a b"), ErrInvalidUniqueID) {
			t.Error("errors.Is failed to match ErrInvalidUniqueID")
		}
	})

	t.Run("wrap and unwrap rule id error", func(t *testing.T) {
		if !errors.Is(NewRuleIDError("9421*"), ErrInvalidRuleID) {
			t.Error("errors.Is failed to match ErrInvalidRuleID")
		}
	})

	t.Run("wrap and unwrap period error", func(t *testing.T) {
		if !errors.Is(NewPeriodError("year"), ErrInvalidPeriod) {
			t.Error("errors.Is failed to match ErrInvalidPeriod")
		}
	})

	t.Run("wrap and unwrap store error", func(t *testing.T) {
		if !errors.Is(NewStoreError("slow_requests", errors.New("conn refused")), ErrStoreUnavailable) {
			t.Error("errors.Is failed to match ErrStoreUnavailable")
		}
	})
}

func TestErrorComparison(t *testing.T) {
	t.Run("different sentinel errors are not equal", func(t *testing.T) {
		if ErrInvalidDomain == ErrInvalidRuleID {
			t.Error("different sentinel errors should not be equal")
		}
	})
}
