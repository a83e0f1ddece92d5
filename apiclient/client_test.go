package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-task-client/apiclient"
	apperrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Message string `json:"message"`
}

func TestRequestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/tasks", r.URL.Path)
		require.Equal(t, apiclient.ContentTypeJSON, r.Header.Get("Content-Type"))

		var in echo
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		w.Header().Set("Content-Type", apiclient.ContentTypeJSON)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(echo{Message: "received: " + in.Message})
	}))
	defer server.Close()

	c := apiclient.New(server.URL + "/")
	var out echo
	err := c.Post(context.Background(), "/api/tasks", echo{Message: "hi"}, &out)
	require.NoError(t, err)
	require.Equal(t, "received: hi", out.Message)
}

func TestRequestDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", apiclient.ContentTypeJSON)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Email already registered"}`))
	}))
	defer server.Close()

	err := apiclient.New(server.URL).Post(context.Background(), "/api/auth/register", echo{}, nil)
	require.ErrorIs(t, err, apperrors.ErrConflict)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Email already registered", apiErr.Message)
}

func TestRequestPlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := apiclient.New(server.URL).Get(context.Background(), "/api/users", nil)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "boom", apiErr.Message)
	require.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestRequestNetworkErrorIsNotAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := apiclient.New(url).Delete(context.Background(), "/api/tasks/1", nil)
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.False(t, apperrors.As(err, &apiErr))
}

func TestPathfEscapesSegments(t *testing.T) {
	require.Equal(t, "/api/tasks/a%2Fb/respond", apiclient.Pathf("/api/tasks/%s/respond", "a/b"))
}
