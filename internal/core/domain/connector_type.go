package domain

// ConnectorType describes one kind of connector the registry can build,
// together with the configuration fields it understands. The CLI renders
// these when walking a user through source setup.
type ConnectorType struct {
	ID          string
	Name        string
	Description string
	ConfigKeys  []ConfigKey
}

// ConfigKey is one configuration field of a connector type.
type ConfigKey struct {
	Key         string
	Label       string
	Description string

	// Default fills the field when the user leaves it blank.
	Default string

	// Required fields fail validation when absent.
	Required bool
}
