package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckConfigCompatibility checks whether a configuration file written for
// configVersion can be loaded by an engine at engineVersion.
//
// Rules:
//   - "main" on either side (development builds) skips the check
//   - major versions must match
//   - the config's minor version must not be newer than the engine's
//   - patch versions are ignored
//
// Examples:
//   - Engine 1.2.0, Config 1.2   -> OK
//   - Engine 1.3.4, Config 1.1.0 -> OK (older config)
//   - Engine 1.2.0, Config 1.3   -> ERROR (config needs a newer engine)
//   - Engine 2.0.0, Config 1.2   -> ERROR (major differs)
func CheckConfigCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if engineVersion == "main" || configVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return fmt.Errorf("invalid config version '%s': %w", configVersion, err)
	}

	if engineSemver.Major() != configSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but config is written for %d.x.x",
			engineSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > engineSemver.Minor() {
		return fmt.Errorf("config version %d.%d requires a newer engine than %d.%d.%d",
			configSemver.Major(), configSemver.Minor(),
			engineSemver.Major(), engineSemver.Minor(), engineSemver.Patch())
	}

	return nil
}
