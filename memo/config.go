package memo

const defaultIndent = "  "

// Config holds database initialization parameters.
type Config struct {
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`     // JSON file backing the collection.
	Indent string `json:"indent,omitempty" yaml:"indent,omitempty"` // Indentation used when writing the file.
}

// DefaultConfig returns the default database configuration. Path has no
// default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Indent: defaultIndent,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Indent != "" {
		c.Indent = source.Indent
	}
}

// OpenConfig opens the database described by cfg. Options are applied after
// the config, so they take precedence.
func OpenConfig[T any, PT Pointer[T]](cfg *Config, opts ...Option) (*Database[T, PT], error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}

	var all []Option
	if cfg.Indent != "" {
		all = append(all, WithIndent(cfg.Indent))
	}
	all = append(all, opts...)

	return Open[T, PT](cfg.Path, all...)
}
