package rpc

const defaultAddr = "127.0.0.1:8700"

// Config holds server parameters.
type Config struct {
	Addr         string `json:"addr,omitempty" yaml:"addr,omitempty"`                     // TCP listen address.
	ReadMaxBytes int    `json:"read_max_bytes,omitempty" yaml:"read_max_bytes,omitempty"` // Request size limit; 0 means unlimited.
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{Addr: defaultAddr}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ReadMaxBytes > 0 {
		c.ReadMaxBytes = source.ReadMaxBytes
	}
}
