package testgestures

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitAttempts submits validation attempts concurrently using worker pools
func submitAttempts(ctx context.Context, config *Config, attempts []Attempt, stats *Stats) error {
	log.Printf("submitting %d attempts with %d workers...", len(attempts), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/validate"

	// Counters for statistics
	var (
		correct    int64
		corrective int64
		pending    int64
		failed     int64
		submitted  int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	attemptChan := make(chan Attempt, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for attempt := range attemptChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleAttempt(ctx, client, url, attempt)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "correct":
						atomic.AddInt64(&correct, 1)
					case "corrective":
						atomic.AddInt64(&corrective, 1)
					case "pending":
						atomic.AddInt64(&pending, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						log.Printf("progress: %d/%d submitted (correct: %d, corrective: %d, pending: %d, failed: %d)",
							total, len(attempts),
							atomic.LoadInt64(&correct), atomic.LoadInt64(&corrective),
							atomic.LoadInt64(&pending), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	// Send attempts to workers
	go func() {
		defer close(attemptChan)
		for _, attempt := range attempts {
			select {
			case <-ctx.Done():
				return
			case attemptChan <- attempt:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Update stats
	stats.AttemptsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.AttemptsCorrect = int(atomic.LoadInt64(&correct))
	stats.AttemptsCorrective = int(atomic.LoadInt64(&corrective))
	stats.AttemptsPending = int(atomic.LoadInt64(&pending))
	stats.AttemptsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`attempt submission completed:
   Correct: %d
   Corrective: %d
   Pending: %d
   Failed: %d
`, stats.AttemptsCorrect, stats.AttemptsCorrective, stats.AttemptsPending, stats.AttemptsFailed)

	return nil
}

// submitSingleAttempt submits a single attempt and classifies the outcome
func submitSingleAttempt(ctx context.Context, client *HTTPClient, url string, attempt Attempt) string {
	resp, err := client.Post(ctx, url, attempt)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusOK:
		var vr ValidateResponse
		if err := json.Unmarshal(body, &vr); err != nil {
			return "failed"
		}
		if vr.IsCorrect {
			return "correct"
		}
		return "corrective"
	case StatusServiceUnavailable:
		// Retryable pending: the request stayed queued past the wait budget.
		return "pending"
	default:
		return "failed"
	}
}

// fetchProgress retrieves the progress record for one (user, module, sign).
func fetchProgress(ctx context.Context, client *HTTPClient, baseURL, userID, moduleID, signID string) (Progress, error) {
	url := fmt.Sprintf("%s/progress/%s/%s/%s", baseURL, userID, moduleID, signID)
	resp, err := client.Get(ctx, url)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to fetch progress: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to read progress response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Progress{}, fmt.Errorf("progress request failed with status %d", resp.StatusCode)
	}
	var p Progress
	if err := json.Unmarshal(body, &p); err != nil {
		return Progress{}, fmt.Errorf("failed to parse progress response: %w", err)
	}
	return p, nil
}
