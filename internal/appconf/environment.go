package appconf

import "strings"

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFlagToEnvironment maps the -env flag value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	case Test:
		return "test"
	default:
		return "development"
	}
}

func (e *Environment) UnmarshalText(b []byte) error {
	*e = EnvFlagToEnvironment(string(b))
	return nil
}

func (e Environment) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}
