// Copyright 2025 Certen Protocol
//
// Configuration loading and validation for the twarb relay.
// Schema: global / elf / provers / l2 / l1s, loaded from a single YAML file.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the relay's YAML configuration file.
type Config struct {
	Global  GlobalConfig             `yaml:"global"`
	ELF     map[string]string        `yaml:"elf"`
	Provers map[string]ProverDetails `yaml:"provers"`
	L2      L2Config                 `yaml:"l2"`
	L1s     map[string]L1Config      `yaml:"l1s"`
}

// GlobalConfig holds process-wide settings.
type GlobalConfig struct {
	Logging              string `yaml:"logging"`
	ServerPort           uint16 `yaml:"server_port"`
	MetricsPort          uint16 `yaml:"metrics_port"`
	Threshold            int    `yaml:"threshold"`
	DBPath               string `yaml:"db_path"`
	BalanceCheckInterval int64  `yaml:"balance_check_interval"` // minutes
}

// BalanceCheckIntervalDuration converts the configured minutes into a Duration.
func (g GlobalConfig) BalanceCheckIntervalDuration() time.Duration {
	return time.Duration(g.BalanceCheckInterval) * time.Minute
}

// ProverDetails describes one configured prover identity.
type ProverDetails struct {
	ProverIP   string `yaml:"prover_ip"`
	ProverType string `yaml:"prover_type"`
}

// L2Config describes the rollup chain the relay reads commit-batch data from.
type L2Config struct {
	Type              string `yaml:"type"` // currently only "evm"
	RPC               string `yaml:"rpc"`
	MessengerContract string `yaml:"messenger_contract"`
	StartBatchNumber  uint64 `yaml:"start_batch_number"`
}

// L1Config describes one destination settlement chain.
type L1Config struct {
	Type             string `yaml:"type"` // "evm" | "solana"
	Contract         string `yaml:"contract"`
	RPC              string `yaml:"rpc"`
	BalanceThreshold string `yaml:"balance_threshold"` // ether-denominated decimal string
	PrivateKey       string `yaml:"private_key"`
}

var urlPattern = regexp.MustCompile(`^(http|https)://[^\s/$.?#].[^\s]*$`)

// IsValidURL reports whether url is a well-formed http(s) URL.
func IsValidURL(url string) bool {
	return urlPattern.MatchString(url)
}

// Load reads and parses the YAML config file at path. It does not validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return &cfg, nil
}

// Validate accumulates every configuration problem rather than failing on
// the first.
func (c *Config) Validate() error {
	var problems []string

	numProvers := len(c.Provers)
	if c.Global.Threshold < 1 {
		problems = append(problems, "threshold must be greater than 0")
	}
	if c.Global.Threshold > numProvers {
		problems = append(problems, fmt.Sprintf(
			"threshold must be less than or equal to the number of provers (%d), found: %d",
			numProvers, c.Global.Threshold))
	}

	for proverType, path := range c.ELF {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			problems = append(problems, fmt.Sprintf("%s elf file does not exist for prover type %s", path, proverType))
		}
	}

	for identifier, details := range c.Provers {
		if !IsValidURL(details.ProverIP) {
			problems = append(problems, fmt.Sprintf("prover %s: prover_ip must be a valid url", identifier))
		}
		if _, err := parseProverType(details.ProverType); err != nil {
			problems = append(problems, fmt.Sprintf("prover %s: %v", identifier, err))
		}
	}

	if c.L2.Type != "" && c.L2.Type != "evm" {
		problems = append(problems, fmt.Sprintf("l2 type %q not supported", c.L2.Type))
	}
	if c.L2.RPC != "" && !IsValidURL(c.L2.RPC) {
		problems = append(problems, fmt.Sprintf("invalid l2 rpc url: %s", c.L2.RPC))
	}

	for chainID, l1 := range c.L1s {
		if !IsValidURL(l1.RPC) {
			problems = append(problems, fmt.Sprintf("invalid l1_rpc url for %s: %s", chainID, l1.RPC))
		}
		switch strings.ToLower(l1.Type) {
		case "evm", "solana":
		default:
			problems = append(problems, fmt.Sprintf("l1 %s: unsupported type %q", chainID, l1.Type))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(problems, "\n- "))
}

func parseProverType(s string) (string, error) {
	switch strings.ToLower(s) {
	case "sp1", "risc0", "dummy":
		return strings.ToLower(s), nil
	default:
		return "", fmt.Errorf("prover type not supported: %q", s)
	}
}
