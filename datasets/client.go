package datasets

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/Noofbiz/scoresim/logger"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// DefaultScheduleURL is the nflverse schedule of every season.
	DefaultScheduleURL = "https://raw.githubusercontent.com/nflverse/nfldata/master/data/games.csv"

	scheduleRatePerSec = 2
	maxRetries         = 3
	baseRetryWait      = 500 * time.Millisecond
)

// ScheduleClient downloads the schedule CSV over HTTP. The file is fetched
// once and cached for later calls.
type ScheduleClient struct {
	URL string

	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	retryWait time.Duration
	log       *logrus.Entry

	mu    sync.Mutex
	games []Game
}

// NewScheduleClient creates a client for url, or DefaultScheduleURL when
// url is empty.
func NewScheduleClient(url string) *ScheduleClient {
	if url == "" {
		url = DefaultScheduleURL
	}
	c := &ScheduleClient{
		URL:       url,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(scheduleRatePerSec, 1),
		retryWait: baseRetryWait,
		log:       logger.Discard(),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "schedule",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return c
}

// SetLogger sets the entry retries and breaker changes are logged to.
func (c *ScheduleClient) SetLogger(l *logrus.Entry) {
	if c == nil || l == nil {
		return
	}
	c.log = l
}

// Games returns the games of season played in weeks [weekStart, weekEnd].
func (c *ScheduleClient) Games(ctx context.Context, season, weekStart, weekEnd int) ([]Game, error) {
	games, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return filterGames(games, season, weekStart, weekEnd)
}

func (c *ScheduleClient) load(ctx context.Context) ([]Game, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.games != nil {
		return c.games, nil
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var games []Game
		err := c.doWithRetry(ctx, func(body io.Reader) error {
			var err error
			games, err = parseSchedule(body)
			return err
		})
		return games, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, c.URL, err)
	}
	c.games = out.([]Game)
	c.log.WithFields(logrus.Fields{
		"url":   c.URL,
		"games": len(c.games),
	}).Info("schedule downloaded")
	return c.games, nil
}

// doWithRetry GETs the schedule with exponential backoff on transport
// errors, 429 and 5xx responses.
func (c *ScheduleClient) doWithRetry(ctx context.Context, decode func(io.Reader) error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.log.WithFields(logrus.Fields{
				"status":  resp.StatusCode,
				"attempt": attempt + 1,
			}).Warn("schedule request failed, retrying")
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		return decode(resp.Body)
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, returning early if ctx is done.
func (c *ScheduleClient) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
