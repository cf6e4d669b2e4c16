//go:build headless

package playback

// Backend names the device DefaultDevice opens.
const Backend = "headless"

// DefaultDevice returns a sink that accepts audio without playing it.
func DefaultDevice() (Device, error) {
	return Discard{}, nil
}
