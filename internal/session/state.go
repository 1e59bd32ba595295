package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Fixed state queries. The output formats are firmware dependent; the
// parsers below accept the variants seen on Frameo hardware.
const (
	powerDumpCommand  = "dumpsys power"
	brightnessCommand = "settings get system screen_brightness"
)

// DeviceState is the parsed screen state.
type DeviceState struct {
	IsOn       bool `json:"screen_on"`
	Brightness int  `json:"brightness"`
}

var (
	wakefulnessRe  = regexp.MustCompile(`mWakefulness=(\w+)`)
	displayPowerRe = regexp.MustCompile(`Display Power: state=(\w+)`)
	brightnessRe   = regexp.MustCompile(`screen_brightness=(\d+)`)
)

// parsePower extracts the screen-on flag from a power manager dump. Newer
// firmware reports mWakefulness=Awake/Asleep/Dozing; older builds only have
// a Display Power line with state=ON/OFF (or the numeric state=2 for on).
func parsePower(raw string) (bool, error) {
	if m := wakefulnessRe.FindStringSubmatch(raw); m != nil {
		return m[1] == "Awake", nil
	}
	if m := displayPowerRe.FindStringSubmatch(raw); m != nil {
		return m[1] == "ON" || m[1] == "2", nil
	}
	return false, fmt.Errorf("%w: no wakefulness or display power flag in power dump: %q", ErrParse, snippet(raw))
}

// parseBrightness extracts the 0-255 brightness level. The settings command
// normally prints a bare integer; some firmware echoes the key=value form.
func parseBrightness(raw string) (int, error) {
	var text string
	if m := brightnessRe.FindStringSubmatch(raw); m != nil {
		text = m[1]
	} else {
		text = strings.TrimSpace(raw)
	}

	level, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: brightness readout is not an integer: %q", ErrParse, snippet(raw))
	}
	if level < 0 || level > 255 {
		return 0, fmt.Errorf("%w: brightness %d outside 0-255", ErrParse, level)
	}
	return level, nil
}

// snippet bounds raw device output embedded in error messages.
func snippet(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 200 {
		return raw[:200] + "..."
	}
	return raw
}
