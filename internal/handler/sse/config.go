package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often a comment line is sent while the
	// stream is idle. Proxies such as Vercel Edge drop idle streams
	// after about 25 seconds.
	KeepAliveInterval time.Duration
	// BufferSize is the event channel capacity between producer and writer.
	BufferSize int
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
		BufferSize:        32,
	}
}
