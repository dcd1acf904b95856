package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/ripplechat/ripple/errs"
)

func Test_err2code(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil",
			err:  nil,
			want: http.StatusOK,
		},
		{
			name: "invalid_argument",
			err:  errs.NewInvalidArgumentError("Interests", "Too many interests"),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "not_found",
			err:  errs.NewNotFoundError("conversation not found"),
			want: http.StatusNotFound,
		},
		{
			name: "conflict",
			err:  errs.NewConflictError("queue entry already claimed"),
			want: http.StatusConflict,
		},
		{
			name: "permission_denied",
			err:  errs.NewPermissionDeniedError("cannot message in this conversation"),
			want: http.StatusForbidden,
		},
		{
			name: "unauthenticated",
			err:  errs.Unauthenticated,
			want: http.StatusUnauthorized,
		},
		{
			name: "unavailable",
			err:  errs.NewUnavailableError("could not join the match queue"),
			want: http.StatusServiceUnavailable,
		},
		{
			name: "wrapped_error_keeps_its_code",
			err:  fmt.Errorf("handling request: %w", errs.NewNotFoundError("user not found")),
			want: http.StatusNotFound,
		},
		{
			name: "unknown_error",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
		{
			name: "streaming_unsupported",
			err:  errStreamingUnsupported,
			want: http.StatusExpectationFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := err2code(tc.err); got != tc.want {
				t.Errorf("err2code() = %d, want %d", got, tc.want)
			}
		})
	}
}

func Test_parsePageArgs(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantFirst *uint
		wantAfter *string
		wantErr   bool
	}{
		{
			name: "empty",
		},
		{
			name:      "first_only",
			query:     "first=10",
			wantFirst: uintPtr(10),
		},
		{
			name:      "first_and_after",
			query:     "first=25&after=abc123",
			wantFirst: uintPtr(25),
			wantAfter: strPtr("abc123"),
		},
		{
			name:    "first_not_a_number",
			query:   "first=ten",
			wantErr: true,
		},
		{
			name:    "first_negative",
			query:   "first=-1",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}

			got, err := parsePageArgs(q)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePageArgs() error = %v", err)
			}

			if (got.First == nil) != (tc.wantFirst == nil) || (got.First != nil && *got.First != *tc.wantFirst) {
				t.Errorf("First = %v, want %v", got.First, tc.wantFirst)
			}
			if (got.After == nil) != (tc.wantAfter == nil) || (got.After != nil && *got.After != *tc.wantAfter) {
				t.Errorf("After = %v, want %v", got.After, tc.wantAfter)
			}
		})
	}
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(s string) *string { return &s }
