package testgestures

import (
	"context"
	"fmt"
	"log"
)

// pairKey identifies one (user, sign) progress record.
type pairKey struct {
	userID string
	signID string
}

// verifyProgress fetches progress records for every (user, sign) pair that
// was exercised and checks them against the submission counts. Progress
// must reflect each resolved attempt exactly once: no lost attempts, no
// double counting from retries or duplicate deliveries.
func verifyProgress(ctx context.Context, config *Config, attempts []Attempt, stats *Stats) error {
	log.Println("verifying progress records...")

	if len(attempts) == 0 {
		return fmt.Errorf("no attempts to verify")
	}

	submittedPerPair := make(map[pairKey]int)
	moduleID := attempts[0].DialectModule
	for _, a := range attempts {
		submittedPerPair[pairKey{userID: a.UserID, signID: a.SignID}]++
	}

	client := newHTTPClient(config.Timeout)

	var (
		retrieved     int
		missing       int
		inconsistent  int
		totalAttempts int
		completed     int
	)
	for pair, submitted := range submittedPerPair {
		p, err := fetchProgress(ctx, client, config.BaseURL, pair.userID, moduleID, pair.signID)
		if err != nil {
			// A pair with only pending or failed submissions may have no
			// record yet.
			missing++
			continue
		}
		retrieved++
		totalAttempts += p.Attempts

		if p.Attempts > submitted {
			// More recorded attempts than submissions means a duplicate
			// delivery was double counted.
			inconsistent++
			log.Printf("inconsistent record for %s/%s: %d attempts recorded, %d submitted",
				pair.userID, pair.signID, p.Attempts, submitted)
		}
		if p.SuccessfulAttempts > p.Attempts {
			inconsistent++
			log.Printf("inconsistent record for %s/%s: %d successes exceed %d attempts",
				pair.userID, pair.signID, p.SuccessfulAttempts, p.Attempts)
		}
		if p.BestAccuracy < 0 || p.BestAccuracy > 1 {
			inconsistent++
			log.Printf("inconsistent record for %s/%s: bestAccuracy %.3f out of range",
				pair.userID, pair.signID, p.BestAccuracy)
		}
		if p.Completed {
			completed++
		}
	}

	stats.ProgressRetrieved = retrieved

	log.Printf(`progress verification completed:
   Pairs exercised: %d
   Records retrieved: %d
   Records missing: %d
   Records completed: %d
   Total recorded attempts: %d
`, len(submittedPerPair), retrieved, missing, completed, totalAttempts)

	if inconsistent > 0 {
		return fmt.Errorf("found %d inconsistent progress records", inconsistent)
	}
	log.Println("all retrieved progress records are consistent")
	return nil
}
