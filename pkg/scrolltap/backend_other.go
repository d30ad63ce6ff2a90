//go:build !darwin && !linux

package scrolltap

// NativeKind reports the backend used when the kind is "auto". Platforms
// without a native backend fall back to the scripted replay source.
func NativeKind() string {
	return KindReplay
}

func openQuartz(Options) (*Backend, error) {
	return nil, ErrUnsupported
}

func openEvdev(Options) (*Backend, error) {
	return nil, ErrUnsupported
}
