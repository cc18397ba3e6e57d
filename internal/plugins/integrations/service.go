package integrations

import (
	"log/slog"
	"strings"
)

// CapabilityService answers questions about the host's installed plugins.
type CapabilityService interface {
	// Has reports whether the named plugin is installed. The empty name is
	// always present.
	Has(plugin string) bool

	// Installed returns the state of every known plugin.
	Installed() Capabilities
}

// capabilityService holds the plugin set read from configuration.
type capabilityService struct {
	installed map[string]bool
}

// NewCapabilityService builds the probe from a list of plugin names. Names
// are matched case-insensitively; unknown names are kept but logged.
func NewCapabilityService(plugins []string) CapabilityService {
	installed := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == "" {
			continue
		}
		if name != WooCommerce && name != EDD {
			slog.Warn("unknown host plugin configured", slog.String("plugin", name))
		}
		installed[name] = true
	}
	return &capabilityService{installed: installed}
}

func (s *capabilityService) Has(plugin string) bool {
	if plugin == "" {
		return true
	}
	return s.installed[strings.ToLower(plugin)]
}

func (s *capabilityService) Installed() Capabilities {
	return Capabilities{
		WooCommerce: s.installed[WooCommerce],
		EDD:         s.installed[EDD],
	}
}
