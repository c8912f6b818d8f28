package testgestures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sahajlabs/mudra/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete gesture validation test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting mudra gesture test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("attempts", config.NumAttempts),
		logger.Int("users", config.NumUsers),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate attempts
	attempts, err := generateAttempts(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("attempt generation failed: %w", err)
	}

	// Step 3: Submit attempts concurrently
	if err := submitAttempts(ctx, config, attempts, stats); err != nil {
		return fmt.Errorf("attempt submission failed: %w", err)
	}

	// Step 4: Let in-flight requests drain
	logger.Get().Info(ctx, "waiting for pipeline to drain")
	time.Sleep(ProcessingDrainDelay)

	// Step 5: Retrieve and verify progress records
	if err := verifyProgress(ctx, config, attempts, stats); err != nil {
		return fmt.Errorf("progress verification failed: %w", err)
	}

	// Step 6: Save attempts to file
	if err := saveAttemptsToFile(ctx, config, attempts); err != nil {
		logger.Get().Warn(ctx, "failed to save attempts to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveAttemptsToFile saves the generated attempts to a JSON file.
func saveAttemptsToFile(ctx context.Context, config *Config, attempts []Attempt) error {
	if len(attempts) == 0 {
		return fmt.Errorf("no attempts to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_attempts_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(attempts); err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}

	logger.Get().Info(ctx, "attempts saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var resolvedRate, attemptsPerSecond float64

	resolved := stats.AttemptsCorrect + stats.AttemptsCorrective
	if stats.AttemptsSubmitted > 0 {
		resolvedRate = float64(resolved) / float64(stats.AttemptsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		attemptsPerSecond = float64(stats.AttemptsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("attemptsGenerated", stats.AttemptsGenerated),
		logger.Int("attemptsSubmitted", stats.AttemptsSubmitted),
		logger.Int("attemptsCorrect", stats.AttemptsCorrect),
		logger.Int("attemptsCorrective", stats.AttemptsCorrective),
		logger.Int("attemptsPending", stats.AttemptsPending),
		logger.Int("attemptsFailed", stats.AttemptsFailed),
		logger.Int("progressRetrieved", stats.ProgressRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("resolvedRate", resolvedRate),
		logger.Float64("attemptsPerSecond", attemptsPerSecond))
}
