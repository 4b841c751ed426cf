package tag

// Option configures Parse.
type Option func(*config)

type config struct {
	magic    [4]byte
	versions []uint32
}

func newConfig(opts []Option) *config {
	cfg := &config{versions: []uint32{DefaultVersion}}
	copy(cfg.magic[:], DefaultMagic)
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) supports(version uint32) bool {
	for _, v := range c.versions {
		if v == version {
			return true
		}
	}
	return false
}

// WithMagic sets the expected 4-byte signature (default "ucsh").
// Shorter values are NUL padded and longer values truncated.
func WithMagic(magic string) Option {
	return func(c *config) {
		c.magic = [4]byte{}
		copy(c.magic[:], magic)
	}
}

// WithVersions sets the accepted tag versions (default 27).
func WithVersions(versions ...uint32) Option {
	return func(c *config) {
		c.versions = append([]uint32(nil), versions...)
	}
}
