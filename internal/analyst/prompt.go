package analyst

import (
	"encoding/json"
	"fmt"

	"github.com/kijani/sentinel/internal/threat"
)

const promptTemplate = `
You are an expert security analyst for a non-technical small business owner.
Analyze the raw security log provided below and execute the following tasks:
1. Determine a non-technical, overall 'Security Score' (0-100) based on the threat.
2. Translate the threat into a single, short, non-technical alert message.
3. Determine the required action: "FIX_IT_NOW" or "SAFE".

RAW LOG: %s

Format the ENTIRE response as a clean JSON object with keys:
score (integer), message (string), and action (string).
`

// BuildPrompt renders the analysis instruction for a security event.
func BuildPrompt(ev threat.SecurityEvent) (string, error) {
	raw, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding security event: %w", err)
	}
	return fmt.Sprintf(promptTemplate, raw), nil
}
