package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// RegistryEnums represents the enum configuration for the registry service.
// Family-member relations and member statuses are configurable via YAML so
// deployments can adjust them without a code change; audit actions and entity
// types are part of the ledger contract and are not configurable.
type RegistryEnums struct {
	Relations      []string `yaml:"relations"`
	MemberStatuses []string `yaml:"memberStatuses"`

	// Maps for O(1) validation lookups (initialized from slices)
	relationsMap      map[string]struct{}
	memberStatusesMap map[string]struct{}

	// initOnce ensures thread-safe lazy initialization of maps
	initOnce sync.Once
}

// Config holds the registry service configuration file contents
type Config struct {
	Enums RegistryEnums `yaml:"enums"`
}

var (
	// DefaultEnums provides default enum values if the config file is not found
	DefaultEnums = RegistryEnums{
		Relations: []string{
			"self",
			"spouse",
			"son",
			"daughter",
			"father",
			"mother",
			"brother",
			"sister",
			"other",
		},
		MemberStatuses: []string{
			"active",
			"inactive",
		},
	}
)

// LoadEnums loads enum configuration from a YAML file.
// If the file is not found or cannot be read, returns default enums.
func LoadEnums(configPath string) (*RegistryEnums, error) {
	if configPath == "" {
		configPath = "config/enums.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return GetDefaultEnums(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Warn("Failed to parse config file, using defaults", "path", configPath, "error", err)
		return GetDefaultEnums(), nil
	}

	// Use defaults for any missing enum arrays
	enums := &config.Enums
	if len(enums.Relations) == 0 {
		enums.Relations = DefaultEnums.Relations
	}
	if len(enums.MemberStatuses) == 0 {
		enums.MemberStatuses = DefaultEnums.MemberStatuses
	}

	enums.InitializeMaps()

	return enums, nil
}

// GetDefaultEnums creates a new RegistryEnums instance with default values.
// Slices are copied to avoid sharing references with the global DefaultEnums.
func GetDefaultEnums() *RegistryEnums {
	enums := &RegistryEnums{
		Relations:      append([]string(nil), DefaultEnums.Relations...),
		MemberStatuses: append([]string(nil), DefaultEnums.MemberStatuses...),
	}
	enums.InitializeMaps()
	return enums
}

// InitializeMaps converts slices to maps for O(1) validation lookups.
// Uses sync.Once to ensure thread-safe initialization that happens only once.
func (e *RegistryEnums) InitializeMaps() {
	e.initOnce.Do(func() {
		e.relationsMap = make(map[string]struct{}, len(e.Relations))
		for _, r := range e.Relations {
			e.relationsMap[r] = struct{}{}
		}

		e.memberStatusesMap = make(map[string]struct{}, len(e.MemberStatuses))
		for _, s := range e.MemberStatuses {
			e.memberStatusesMap[s] = struct{}{}
		}
	})
}

// IsValidRelation checks if the given family-member relation is valid
func (e *RegistryEnums) IsValidRelation(relation string) bool {
	if relation == "" {
		return true // Empty is allowed (nullable field)
	}
	_, exists := e.relationsMap[relation]
	return exists
}

// IsValidMemberStatus checks if the given member status is valid
func (e *RegistryEnums) IsValidMemberStatus(status string) bool {
	_, exists := e.memberStatusesMap[status]
	return exists
}

// GetEnvOrDefault gets an environment variable with a fallback default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
