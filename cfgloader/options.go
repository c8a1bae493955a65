package cfgloader

// Options adjusts how MustLoad behaves.
type Options struct {
	// Silent suppresses the masked config dump on stdout.
	Silent bool
}

// Option mutates Options; pass them to MustLoad.
type Option func(*Options)

// WithSilent turns off the startup config dump. Use it in tests and in
// tools whose stdout is machine-read.
func WithSilent() Option {
	return func(o *Options) {
		o.Silent = true
	}
}
