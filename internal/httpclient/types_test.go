package httpclient_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stacklok/vicius-manifest-server/internal/httpclient"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		url           string
		message       string
		expectedError string
	}{
		{
			name:          "all fields",
			statusCode:    404,
			url:           "https://api.github.com/repos/nefarius/HidHide/releases/latest",
			message:       "404 Not Found",
			expectedError: "HTTP 404 for URL https://api.github.com/repos/nefarius/HidHide/releases/latest: 404 Not Found",
		},
		{
			name:          "empty message",
			statusCode:    500,
			url:           "http://example.com",
			expectedError: "HTTP 500 for URL http://example.com: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := httpclient.NewHTTPError(tt.statusCode, tt.url, tt.message)
			assert.EqualError(t, err, tt.expectedError)

			wrapped := fmt.Errorf("fetching release: %w", err)
			var httpErr *httpclient.HTTPError
			assert.True(t, errors.As(wrapped, &httpErr))
			assert.Equal(t, tt.statusCode, httpErr.StatusCode)
		})
	}
}
