package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("document 4: %w", ErrUnknownDocument), http.StatusNotFound},
		{fmt.Errorf("manifest: %w", ErrIndexNotFound), http.StatusNotFound},
		{ErrDirectoryNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrNotADirectory, http.StatusBadRequest},
		{ErrIndexNotLoaded, http.StatusServiceUnavailable},
		{fmt.Errorf("search: %w", ErrTimeout), http.StatusGatewayTimeout},
		{ErrCorruptIndex, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
		{New(ErrInvalidInput, http.StatusUnprocessableEntity, "bad"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), tt.err.Error())
	}
}

func TestAppError(t *testing.T) {
	err := Newf(ErrUnknownDocument, http.StatusNotFound, "document %d", 7)
	assert.Equal(t, "unknown document: document 7", err.Error())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrUnknownDocument)
}
