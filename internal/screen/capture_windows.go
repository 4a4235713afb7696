//go:build windows

package screen

// The display backend already uses GDI on Windows; there is no command tool to fall back to.
func platformBackend(string) backend {
	return nil
}
