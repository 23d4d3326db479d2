package ports

// Clock supplies the injected time context of a draw.
type Clock interface {
	// Now returns wall-clock seconds since the Unix epoch.
	Now() int64
	// Round returns an externally monotonic counter, such as a slot height.
	Round() uint64
}
