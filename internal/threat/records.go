package threat

import "time"

// SecurityEvent is a raw log record as reported by the local sentinel agent.
type SecurityEvent struct {
	Event        string `json:"event"`
	SourceIP     string `json:"source_ip"`
	User         string `json:"user"`
	RiskScoreRaw int    `json:"risk_score_raw"`
	Timestamp    string `json:"timestamp"`
}

// startedAt is stamped once so every analysis sees the same sample log.
var startedAt = time.Now().UTC().Format(time.RFC3339)

// SampleLog returns the fixed log the service analyses on every request.
func SampleLog() SecurityEvent {
	return SecurityEvent{
		Event:        "Mass File Encryption Spike",
		SourceIP:     "192.168.1.15",
		User:         "John_Doe",
		RiskScoreRaw: 92,
		Timestamp:    startedAt,
	}
}

// FallbackLabel tags a status produced without the AI verdict.
const FallbackLabel = "SIMULATED FALLBACK: AI API Failure"

// Fallback is returned by the service whenever the AI call fails.
func Fallback() Status {
	return Status{
		Score:       45,
		Message:     "Local Sentinel Agent detected a serious issue.",
		Action:      ActionFixItNow,
		StatusColor: ColorRed,
		Error:       FallbackLabel,
	}
}

// NetworkError is shown by the dashboard when the service is unreachable.
func NetworkError() Status {
	return Status{
		Score:       40,
		Message:     "Network Error: Cannot contact AI Cloud. Local Agent active for critical threats.",
		Action:      ActionFixItNow,
		StatusColor: ColorRed,
	}
}

// Attack is the record the demo dashboard switches to on a simulated attack
// against device. An empty device leaves the location out.
func Attack(device string) Status {
	where := ""
	if device != "" {
		where = " on " + device
	}
	return Status{
		Score:       45,
		Message:     "CRITICAL ALERT: Mass file encryption detected" + where + ". Ransomware activity suspected.",
		Action:      ActionFixItNow,
		StatusColor: ColorRed,
	}
}

// Placeholder is displayed before the first status has loaded.
func Placeholder() Status {
	return Status{
		Score:       ScoreUnknown,
		Message:     "Initializing Kijani System...",
		Action:      ActionSafe,
		StatusColor: ColorNeutral,
	}
}

// Healthy is the starting status of the demo dashboard.
func Healthy() Status {
	return Status{
		Score:       99,
		Message:     "All systems protected. Kijani is watching your business.",
		Action:      ActionSafe,
		StatusColor: ColorGreen,
	}
}

// Repaired is the status after a local "fix it now" with the given score.
func Repaired(score int) Status {
	return Status{
		Score:       score,
		Message:     "System fixed. All clear. Kijani protection active. Business operations restored instantly via Local Backup Cache.",
		Action:      ActionSafe,
		StatusColor: ColorGreen,
	}
}
