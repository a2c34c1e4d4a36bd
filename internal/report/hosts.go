package report

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/periscope-tools/periscope/internal/getter"
)

// HostsFile maps host-type tags to the target hosts of that type, as
// parsed from a user-supplied hosts file. An empty list under a
// discoverable backend triggers autodiscovery during gathering.
type HostsFile map[string][]getter.Host

// LoadHostsFile reads and parses a YAML hosts file.
func LoadHostsFile(path string) (HostsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hosts file: %w", err)
	}
	var hosts HostsFile
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return nil, fmt.Errorf("parse hosts file %s: %w", path, err)
	}
	return hosts, nil
}

var validate = validator.New()

// Per-type shadow structs carrying the validation rules for host
// entries. Which fields a Host needs depends entirely on its type.
type (
	kubernetesHostRules struct {
		Name      string `validate:"required"`
		Namespace string `validate:"required"`
	}
	dockerHostRules struct {
		ContainerID string `validate:"required"`
	}
	sshHostRules struct {
		Address string `validate:"required"`
	}
)

// validateHost checks that a hosts-file entry carries the identifying
// fields its host type requires.
func validateHost(hostType getter.HostType, h getter.Host) error {
	var err error
	switch hostType {
	case getter.HostTypeKubernetes:
		err = validate.Struct(kubernetesHostRules{Name: h.Name, Namespace: h.Namespace})
	case getter.HostTypeDocker:
		err = validate.Struct(dockerHostRules{ContainerID: h.ContainerID})
	case getter.HostTypeSSH:
		err = validate.Struct(sshHostRules{Address: h.Address})
	case getter.HostTypeLocal:
		// nothing to identify
	}
	if err != nil {
		return fmt.Errorf("invalid %s host entry: %w", hostType, err)
	}
	return nil
}
