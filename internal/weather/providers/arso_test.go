package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/arso-weather-bridge/internal/metrics"
)

func TestFetchDocument(t *testing.T) {
	gotLocation := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocation <- r.URL.Query().Get("location")
		_, _ = io.WriteString(w, `{
			"observation": {"features": [{"properties": {"days": [{"date": "2024-05-14", "timeline": [{"t": "5"}]}]}}]},
			"forecast3h": {"features": [{"properties": {"days": []}}]}
		}`)
	}))
	defer srv.Close()

	doc, err := newTestClient(srv).FetchDocument(context.Background(), "Murska Sobota")
	require.NoError(t, err)

	assert.Equal(t, "Murska Sobota", <-gotLocation)
	require.NotNil(t, doc.Observation)
	assert.NotNil(t, doc.Forecast3h)
	assert.Nil(t, doc.Forecast24h)

	days := doc.Observation.Days()
	require.Len(t, days, 1)
	assert.Equal(t, "5", days[0].Timeline[0]["t"])
}

func TestFetchDocument_Errors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		col := metrics.New(prometheus.NewRegistry())
		client := newTestClient(srv)
		client.metrics = col

		_, err := client.FetchDocument(context.Background(), "Ljubljana")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTransport))

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(col.FetchFailures.WithLabelValues("forecast")))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		}))
		defer srv.Close()

		_, err := newTestClient(srv).FetchDocument(context.Background(), "Ljubljana")
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("no http client", func(t *testing.T) {
		client := NewARSOClient(nil, ClientConfig{Logger: quietLogger()})
		_, err := client.FetchDocument(context.Background(), "Ljubljana")
		assert.ErrorIs(t, err, errNoHTTPClient)
	})
}

func TestFetchDocument_CircuitOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	for i := 0; i < 5; i++ {
		_, err := client.FetchDocument(context.Background(), "Ljubljana")
		require.Error(t, err)
	}

	_, err := client.FetchDocument(context.Background(), "Ljubljana")
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(5), hits.Load(), "open circuit short-circuits the request")
}

func TestFetchDocument_ClientErrorsDoNotOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("location") != "Ljubljana" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"observation": {"features": []}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	for i := 0; i < 10; i++ {
		_, err := client.FetchDocument(context.Background(), "Ljubljanna")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
	}

	doc, err := client.FetchDocument(context.Background(), "Ljubljana")
	require.NoError(t, err)
	assert.NotNil(t, doc.Observation)
}

func TestUpstreamHealthy(t *testing.T) {
	assert.True(t, upstreamHealthy(nil))
	assert.True(t, upstreamHealthy(&StatusError{Code: http.StatusNotFound}))
	assert.False(t, upstreamHealthy(&StatusError{Code: http.StatusBadGateway}))
	assert.False(t, upstreamHealthy(errors.New("connection refused")))
}
