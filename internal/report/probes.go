package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/periscope-tools/periscope/internal/getter"
)

// Probes maps host type to the named checks run against every getter
// of that type. Commands may be written as shell lines or argv
// sequences; the getter decides how to interpret them.
type Probes map[getter.HostType]map[string]getter.Command

// LoadProbes reads and parses a YAML probe configuration.
func LoadProbes(path string) (Probes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read probe config: %w", err)
	}
	var probes Probes
	if err := yaml.Unmarshal(data, &probes); err != nil {
		return nil, fmt.Errorf("parse probe config %s: %w", path, err)
	}
	return probes, nil
}
