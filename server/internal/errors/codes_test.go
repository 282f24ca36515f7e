package errors

import (
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *ChatError
		want int
	}{
		{InvalidRequest("bad"), http.StatusBadRequest},
		{Unauthorized("who"), http.StatusUnauthorized},
		{ResourceConflict("dup"), http.StatusConflict},
		{QuotaExhausted("limit", nil), http.StatusTooManyRequests},
		{StorageError("disk", nil), http.StatusInternalServerError},
		{ProviderError("upstream", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.err.HTTPStatus(), tt.err.Code)
	}
}

func TestErrorUnwrapAndCode(t *testing.T) {
	cause := pkgerrors.New("root cause")
	err := StorageError("write failed", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "STORAGE_ERROR")
	require.Contains(t, err.Error(), "root cause")

	require.True(t, IsCode(err, ErrCodeStorageError))
	require.False(t, IsCode(err, ErrCodeProviderError))
	require.False(t, IsCode(cause, ErrCodeStorageError))

	require.Equal(t, ErrCodeStorageError, GetCodeFromError(err, ErrCodeProviderError))
	require.Equal(t, ErrCodeProviderError, GetCodeFromError(cause, ErrCodeProviderError))
}
