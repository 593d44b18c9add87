package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter formats machines as JSON.
type JSONFormatter struct{}

// FormatMachine formats a single machine as JSON.
func (f *JSONFormatter) FormatMachine(m *Machine) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal machine to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatMachineList formats a list of machines as JSON.
// Outputs as a JSON array.
func (f *JSONFormatter) FormatMachineList(ms []Machine) (string, error) {
	if len(ms) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(ms, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal machines to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
