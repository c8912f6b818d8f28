package testgestures

import "time"

// Config holds configuration for the gesture test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumAttempts int           // Number of validation attempts to generate
	NumUsers    int           // Number of distinct learners to simulate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for attempts
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Landmark is one wire-format hand landmark.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Coordinates is the wire-format captured frame.
type Coordinates struct {
	Landmarks  []Landmark `json:"landmarks"`
	Handedness string     `json:"handedness"`
	Timestamp  string     `json:"timestamp"`
}

// Attempt represents one validation attempt to be submitted
type Attempt struct {
	UserID        string      `json:"userId"`
	SignID        string      `json:"signId"`
	DialectModule string      `json:"dialectModule"`
	Language      string      `json:"language"`
	Coordinates   Coordinates `json:"coordinates"`
}

// ValidateResponse mirrors the response from POST /validate
type ValidateResponse struct {
	RequestID  string  `json:"requestId"`
	IsCorrect  bool    `json:"isCorrect"`
	Confidence float64 `json:"confidence"`
	Feedback   struct {
		Text         string   `json:"text"`
		TextAlt      string   `json:"textAlt"`
		Type         string   `json:"type"`
		Instructions []string `json:"instructions"`
	} `json:"feedback"`
	AudioAvailable bool `json:"audioAvailable"`
}

// Progress mirrors the response from GET /progress
type Progress struct {
	UserID             string  `json:"userId"`
	ModuleID           string  `json:"moduleId"`
	SignID             string  `json:"signId"`
	Attempts           int     `json:"attempts"`
	SuccessfulAttempts int     `json:"successfulAttempts"`
	BestAccuracy       float64 `json:"bestAccuracy"`
	Completed          bool    `json:"completed"`
}

// Stats holds test statistics
type Stats struct {
	AttemptsGenerated  int
	AttemptsSubmitted  int
	AttemptsCorrect    int
	AttemptsCorrective int
	AttemptsPending    int
	AttemptsFailed     int
	ProgressRetrieved  int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
