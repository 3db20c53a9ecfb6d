package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// testConfig is the decoded shape of tests/qemu_config.yaml: a set of QEMU
// arguments shared by every test, plus a per-test-name override/extension
// list appended after them.
type testConfig struct {
	AllTests []string            `yaml:"all_tests"`
	Tests    map[string][]string `yaml:"tests"`
}

// loadTestConfig reads and decodes path.
func loadTestConfig(path string) (*testConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg testConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// argsFor returns the full QEMU argument list for the named test: the
// shared all_tests prefix followed by that test's own entry.
func (c *testConfig) argsFor(name string) []string {
	args := make([]string, 0, len(c.AllTests)+len(c.Tests[name]))
	args = append(args, c.AllTests...)
	args = append(args, c.Tests[name]...)
	return args
}
