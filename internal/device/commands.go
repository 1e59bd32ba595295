package device

import "fmt"

// FrameoPackage is the application package of the Frameo frontend.
const FrameoPackage = "com.frameo.app"

// DefaultUploadDir is where Frameo picks up photos from.
const DefaultUploadDir = "/sdcard/Frameo"

const (
	screenshotCommand = "screencap -p"
	wakeCommand       = "input keyevent KEYCODE_WAKEUP"
	sleepCommand      = "input keyevent KEYCODE_SLEEP"
)

func brightnessCommand(level int) string {
	return fmt.Sprintf("settings put system screen_brightness %d", level)
}

func tapCommand(x, y int) string {
	return fmt.Sprintf("input tap %d %d", x, y)
}

func swipeCommand(x1, y1, x2, y2, durationMs int) string {
	if durationMs > 0 {
		return fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs)
	}
	return fmt.Sprintf("input swipe %d %d %d %d", x1, y1, x2, y2)
}

func keyeventCommand(code string) string {
	return fmt.Sprintf("input keyevent %s", code)
}

func launchCommand(pkg string) string {
	return fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", pkg)
}

func forceStopCommand(pkg string) string {
	return fmt.Sprintf("am force-stop %s", pkg)
}

func mediaScanCommand(remotePath string) string {
	return fmt.Sprintf("am broadcast -a android.intent.action.MEDIA_SCANNER_SCAN_FILE -d file://%s", remotePath)
}
