package datasets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func scheduleBody() string {
	return scheduleHeader + "\n" + strings.Join(scheduleRows, "\n") + "\n"
}

// newTestClient returns a client without rate limiting or backoff delays.
func newTestClient(url string) *ScheduleClient {
	c := NewScheduleClient(url)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	c.retryWait = time.Millisecond
	return c
}

func TestScheduleClientDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(scheduleBody()))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	games, err := c.Games(context.Background(), 2023, 1, 1)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "KC", games[0].HomeTeam)

	games, err = c.Games(context.Background(), 2022, 18, 18)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestScheduleClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(scheduleBody()))
		}
	}))
	defer srv.Close()

	games, err := newTestClient(srv.URL).Games(context.Background(), 2023, 1, 3)
	require.NoError(t, err)
	assert.Len(t, games, 4)
	assert.Equal(t, int32(3), hits.Load())
}

func TestScheduleClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Games(context.Background(), 2023, 1, 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), hits.Load())
}

func TestScheduleClientBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Games(context.Background(), 2023, 1, 1)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	}
	assert.Equal(t, int32(3*(maxRetries+1)), hits.Load())

	_, err := c.Games(context.Background(), 2023, 1, 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, int32(3*(maxRetries+1)), hits.Load())
}

func TestScheduleClientBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not,a,schedule\n1,2,3\n"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Games(context.Background(), 2023, 1, 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestScheduleClientDefaultURL(t *testing.T) {
	assert.Equal(t, DefaultScheduleURL, NewScheduleClient("").URL)
}
