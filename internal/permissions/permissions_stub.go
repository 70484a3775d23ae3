//go:build !darwin

package permissions

// Only macOS gates capture behind a per-app permission.
func microphoneStatus() Status { return Granted }

func requestMicrophone() {}
