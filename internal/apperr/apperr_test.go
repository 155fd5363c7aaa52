package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed", Malformedf("parse", "bad xml"), http.StatusBadRequest},
		{"transport", FromTransport("forward", "work", errors.New("dial tcp: refused")), http.StatusBadGateway},
		{"protocol", FromStatus("forward", "work", "403 Forbidden", nil), http.StatusInternalServerError},
		{"unknown calendar", UnknownCalendar("resource", "nope"), http.StatusNotFound},
		{"rewrite", Rewrite("rewrite", "work", errors.New("no response")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("aggregator - Collection: %w", UnknownCalendar("x", "y")), http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestBody_CarriesUpstreamStatus(t *testing.T) {
	err := FromStatus("forward", "work", "503 Service Unavailable", []byte("maintenance"))

	assert.Equal(t, "upstream work answered 503 Service Unavailable", Body(err))
	assert.Contains(t, err.Error(), "maintenance")
	assert.True(t, Is(err, KindUpstreamProtocol))
}

func TestFromStatus_TruncatesBody(t *testing.T) {
	err := FromStatus("forward", "work", "500", []byte(strings.Repeat("x", 1000)))

	assert.Less(t, len(err.Err.Error()), 300)
}

func TestError_Unwrap(t *testing.T) {
	inner := context.Canceled
	err := FromTransport("forward", "work", inner)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindUpstreamTransport, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(inner))
}
