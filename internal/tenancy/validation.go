package tenancy

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxNameLength     = 100
	maxConfigKeys     = 50
	maxStringValueLen = 1024
	maxNestingDepth   = 10
)

// ValidateName checks if a tenant or room name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateTimezone checks that a timezone is a loadable IANA zone name.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("%w: timezone cannot be empty", ErrInvalidTimezone)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return nil
}

// ValidateDisplayConfig checks that a DisplayConfig map does not exceed size limits.
func ValidateDisplayConfig(c DisplayConfig) error {
	if c == nil {
		return nil
	}
	if len(c) > maxConfigKeys {
		return fmt.Errorf("%w: exceeds max keys (%d)", ErrInvalidDisplayConfig, maxConfigKeys)
	}
	return validateMapSize(map[string]any(c), 0)
}

// validateMapSize recursively checks map values against size limits.
func validateMapSize(m map[string]any, depth int) error {
	if depth > maxNestingDepth {
		return fmt.Errorf("%w: exceeds maximum nesting depth", ErrInvalidDisplayConfig)
	}
	for k, v := range m {
		if len(k) > maxStringValueLen {
			return fmt.Errorf("%w: key too long", ErrInvalidDisplayConfig)
		}
		if err := validateValueSize(v, depth); err != nil {
			return err
		}
	}
	return nil
}

// validateValueSize checks individual values in a display config map.
func validateValueSize(v any, depth int) error {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		if len(val) > maxStringValueLen {
			return fmt.Errorf("%w: string value too long", ErrInvalidDisplayConfig)
		}
	case map[string]any:
		if len(val) > maxConfigKeys {
			return fmt.Errorf("%w: nested map too large", ErrInvalidDisplayConfig)
		}
		return validateMapSize(val, depth+1)
	case []any:
		if len(val) > maxConfigKeys {
			return fmt.Errorf("%w: array too large", ErrInvalidDisplayConfig)
		}
		for _, elem := range val {
			if err := validateValueSize(elem, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateTenant validates a Tenant before persistence.
func ValidateTenant(t *Tenant) error {
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if err := ValidateTimezone(t.Timezone); err != nil {
		return err
	}
	return ValidateDisplayConfig(t.DisplayConfig)
}

// ValidateRoom validates a Room before persistence.
func ValidateRoom(r *Room) error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if r.Capacity < 0 {
		return fmt.Errorf("%w: capacity cannot be negative", ErrInvalidCapacity)
	}
	return nil
}
