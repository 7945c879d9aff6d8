package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainer_RouterServesBaseRoutes(t *testing.T) {
	t.Parallel()

	c := setupTestContainer(t)

	err := c.Invoke(func(srv *http.Server) {
		ts := httptest.NewServer(srv.Handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/ping")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp, err = http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp, err = http.Get(ts.URL + "/definitely-not-a-route")
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp, err = http.Get(ts.URL + "/api/v1/dispatch/stats")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	})
	require.NoError(t, err)
}
