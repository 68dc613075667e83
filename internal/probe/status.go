package probe

import "time"

// Code is a service run-state as reported by the remote service manager.
// The numeric values are the Windows SCM status codes.
type Code int

const (
	CodeUnknown      Code = 0
	CodeStopped      Code = 1
	CodeStarting     Code = 2
	CodeStopping     Code = 3
	CodeRunning      Code = 4
	CodeStopPending  Code = 5
	CodeStartPending Code = 6
	CodePaused       Code = 7
)

// Severity classifies how a status should be presented.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityPending
	SeverityDown
)

// Info is the display classification for a status code.
type Info struct {
	Label       string
	Severity    Severity
	Description string
}

// statusTable maps the known codes 1-7. Anything else classifies as unknown;
// the monitor must never fail on an unrecognized code.
var statusTable = map[Code]Info{
	CodeStopped:      {Label: "STOPPED", Severity: SeverityDown, Description: "The service is not active"},
	CodeStarting:     {Label: "STARTING...", Severity: SeverityPending, Description: "The service is starting"},
	CodeStopping:     {Label: "STOPPING...", Severity: SeverityPending, Description: "The service is shutting down"},
	CodeRunning:      {Label: "RUNNING", Severity: SeverityOK, Description: "The service is running normally"},
	CodeStopPending:  {Label: "STOP PENDING", Severity: SeverityPending, Description: "A stop is being prepared"},
	CodeStartPending: {Label: "START PENDING", Severity: SeverityPending, Description: "A start is being prepared"},
	CodePaused:       {Label: "PAUSED", Severity: SeverityPending, Description: "The service is paused"},
}

var unknownInfo = Info{Label: "UNKNOWN", Severity: SeverityDown, Description: "Status is unknown"}

// Classify returns the display info for a status code, falling back to the
// unknown classification for codes outside 1-7.
func Classify(c Code) Info {
	if info, ok := statusTable[c]; ok {
		return info
	}
	return unknownInfo
}

// String returns the display label for the code.
func (c Code) String() string {
	return Classify(c).Label
}

// Status is one observation of the monitored service. Produced fresh on every
// probe; never mutated, only replaced.
type Status struct {
	Code        Code
	DisplayName string
	StartType   string
	ObservedAt  time.Time
}

// Running reports whether the observed state is the desired one.
func (s *Status) Running() bool {
	return s != nil && s.Code == CodeRunning
}
