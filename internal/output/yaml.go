package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats machines as YAML.
type YAMLFormatter struct{}

// FormatMachine formats a single machine as YAML.
func (f *YAMLFormatter) FormatMachine(m *Machine) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal machine to YAML: %w", err)
	}

	return string(data), nil
}

// FormatMachineList formats a list of machines as YAML.
// Outputs as a YAML stream (multiple documents separated by ---).
func (f *YAMLFormatter) FormatMachineList(ms []Machine) (string, error) {
	if len(ms) == 0 {
		return "", nil
	}

	var buf bytes.Buffer

	for i := range ms {
		data, err := yaml.Marshal(&ms[i])
		if err != nil {
			return "", fmt.Errorf("failed to marshal machine %s to YAML: %w", ms[i].Name, err)
		}

		// Add document separator between machines (but not before the first one)
		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.String(), nil
}
