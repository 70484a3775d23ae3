//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

// AVAuthorizationStatus values.
const (
	statusNotDetermined = 0
	statusRestricted    = 1
	statusDenied        = 2
	statusAuthorized    = 3
)

func microphoneStatus() Status {
	switch int(C.checkMicrophonePermission()) {
	case statusAuthorized:
		return Granted
	case statusNotDetermined:
		return NotDetermined
	default:
		return Denied
	}
}

func requestMicrophone() {
	C.requestMicrophonePermission()
}
