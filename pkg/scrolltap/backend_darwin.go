//go:build darwin

package scrolltap

// NativeKind reports the backend used when the kind is "auto".
func NativeKind() string {
	return KindQuartz
}

func openQuartz(opts Options) (*Backend, error) {
	q := NewQuartz(opts.Logger)
	return &Backend{Name: KindQuartz, Interceptor: q, Emitter: q}, nil
}

func openEvdev(Options) (*Backend, error) {
	return nil, ErrUnsupported
}
