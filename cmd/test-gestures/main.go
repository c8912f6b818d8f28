package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/sahajlabs/mudra/internal/testgestures"
)

// Default configuration constants.
const (
	defaultNumAttempts = 1000
	defaultNumUsers    = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numAttempts = flag.Int("attempts", defaultNumAttempts, "Number of validation attempts to generate and submit")
		numUsers    = flag.Int("users", defaultNumUsers, "Number of distinct learners to simulate")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated attempts (default: generated_attempts_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testgestures.ShowHelp()
		return
	}

	// Setup logging
	if err := testgestures.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testgestures.Config{
		BaseURL:     *baseURL,
		NumAttempts: *numAttempts,
		NumUsers:    *numUsers,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the test
	if err := testgestures.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
