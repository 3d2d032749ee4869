package transport

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ValidateCapabilities checks that every capability version is semver.
func ValidateCapabilities(caps map[string]string) error {
	for name, v := range caps {
		if _, err := semver.NewVersion(v); err != nil {
			return fmt.Errorf("capability %q: invalid version %q: %w", name, v, err)
		}
	}
	return nil
}

// Compatible reports whether two peers can exchange objects: for every
// capability they both announce the major versions must match.
// Capabilities known to only one side are ignored.
func Compatible(local, remote map[string]string) error {
	for name, lv := range local {
		rv, ok := remote[name]
		if !ok {
			continue
		}

		lver, err := semver.NewVersion(lv)
		if err != nil {
			return fmt.Errorf("capability %q: local version %q: %w", name, lv, err)
		}
		rver, err := semver.NewVersion(rv)
		if err != nil {
			return fmt.Errorf("capability %q: remote version %q: %w", name, rv, err)
		}

		if lver.Major() != rver.Major() {
			return fmt.Errorf("capability %q: incompatible versions %s and %s", name, lver, rver)
		}
	}
	return nil
}
