package sweep

import (
	"runtime"
	"time"
)

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
	DefaultEpsilon = 1e-5
	DefaultCap     = 0.25
)

// Config holds configuration for a sweep.
type Config struct {
	BaseURL string        // Base URL of the viewer
	Years   []int         // Years to sweep; empty means every loaded year
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Epsilon float64       // Tie tolerance used by the viewer
	Cap     float64       // PV cap used by the viewer
	RunID   string        // Sent as X-Run-ID; generated when empty
	Verbose bool          // Log every failed check
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Epsilon <= 0 {
		c.Epsilon = DefaultEpsilon
	}
	if c.Cap <= 0 {
		c.Cap = DefaultCap
	}
	return c
}

// Check names.
const (
	CheckSorted  = "sorted"
	CheckEven    = "even"
	CheckActual  = "actual"
	CheckIndex   = "index"
	CheckTotals  = "totals"
	CheckWinners = "winners"
)

// Failure is one failed check.
type Failure struct {
	Year   int    `json:"year"`
	Index  int    `json:"index"`
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// Report holds sweep statistics.
type Report struct {
	RunID       string        `json:"run_id"`
	Years       int           `json:"years"`
	Stops       int           `json:"stops"`
	Evaluations int           `json:"evaluations"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Failures    []Failure     `json:"failures,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool { return r.Failed == 0 }

// stopPayload mirrors one entry of /api/stops.
type stopPayload struct {
	Value     float64 `json:"value"`
	Effective float64 `json:"effective"`
	Index     int     `json:"index"`
}

// stopsPayload mirrors the /api/stops response.
type stopsPayload struct {
	Year        int           `json:"year"`
	National    float64       `json:"national"`
	EvenIndex   int           `json:"even_index"`
	ActualIndex int           `json:"actual_index"`
	Stops       []stopPayload `json:"stops"`
}

type unitPayload struct {
	Unit           string  `json:"unit"`
	Outcome        string  `json:"outcome"`
	Margin         float64 `json:"margin"`
	ElectoralVotes int     `json:"electoral_votes"`
}

// evaluatePayload mirrors the /api/evaluate response.
type evaluatePayload struct {
	Year      int     `json:"year"`
	StopIndex int     `json:"stop_index"`
	Stop      float64 `json:"stop"`
	Actual    bool    `json:"actual"`
	Totals    struct {
		First  int `json:"first"`
		Second int `json:"second"`
		Other  int `json:"other"`
	} `json:"totals"`
	Units []unitPayload `json:"units"`
}

type yearsPayload struct {
	Years []int `json:"years"`
}
