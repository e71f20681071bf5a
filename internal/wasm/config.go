package wasm

// ConfigProvider is the external collaborator that supplies async-parsing thresholds
// and resource limits to the decoder. A *Config implements it directly; embedders
// supplying their own ConfigProvider only need these three accessors.
type ConfigProvider interface {
	AsyncParsingBinarySize() uint32
	AsyncParsingStackSizeKB() uint32
	Limits() Limits
}

// Config is the default ConfigProvider, built with a RuntimeConfig-style fluent API:
// every With* method returns a new *Config so callers can chain without mutating a
// shared default.
type Config struct {
	asyncParsingBinarySize  uint32
	asyncParsingStackSizeKB uint32
	limits                  Limits
}

// defaultConfig avoids copy/pasting the wrong zero values; 0 for AsyncParsingBinarySize
// means "always synchronous", per spec §6.
var defaultConfig = &Config{
	asyncParsingBinarySize:  0,
	asyncParsingStackSizeKB: 0,
	limits:                  DefaultLimits(),
}

// NewConfig returns a Config with wazero-style sane-but-conservative defaults:
// synchronous parsing and DefaultLimits().
func NewConfig() *Config {
	return defaultConfig.clone()
}

func (c *Config) clone() *Config {
	cp := *c
	return &cp
}

// WithAsyncParsingBinarySize sets the byte threshold above which the code section runs
// on a background goroutine. 0 (the default) means always synchronous.
func (c *Config) WithAsyncParsingBinarySize(n uint32) *Config {
	ret := c.clone()
	ret.asyncParsingBinarySize = n
	return ret
}

// WithAsyncParsingStackSize sets the requested goroutine stack-size hint in KB for the
// background code-section task. 0 (the default) computes max(1MB, min(2*size, 10MB)).
func (c *Config) WithAsyncParsingStackSize(kb uint32) *Config {
	ret := c.clone()
	ret.asyncParsingStackSizeKB = kb
	return ret
}

// WithLimits overrides the resource-limit ceilings used during decode.
func (c *Config) WithLimits(l Limits) *Config {
	ret := c.clone()
	ret.limits = l.fillDefaults()
	return ret
}

func (c *Config) AsyncParsingBinarySize() uint32  { return c.asyncParsingBinarySize }
func (c *Config) AsyncParsingStackSizeKB() uint32 { return c.asyncParsingStackSizeKB }
func (c *Config) Limits() Limits                  { return c.limits.fillDefaults() }
