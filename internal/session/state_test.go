package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePower(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    bool
		wantErr bool
	}{
		{name: "wakefulness awake", raw: "POWER MANAGER (dumpsys power)\n  mWakefulness=Awake\n  mWakeLockSummary=0x0", want: true},
		{name: "wakefulness asleep", raw: "mWakefulness=Asleep", want: false},
		{name: "wakefulness dozing", raw: "mWakefulness=Dozing", want: false},
		{name: "display power on", raw: "Display Power: state=ON", want: true},
		{name: "display power off", raw: "Display Power: state=OFF", want: false},
		{name: "display power numeric on", raw: "Display Power: state=2", want: true},
		{name: "wakefulness wins over display line", raw: "mWakefulness=Asleep\nDisplay Power: state=ON", want: false},
		{name: "no recognizable flag", raw: "service power is not running", wantErr: true},
		{name: "empty output", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePower(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBrightness(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "bare integer", raw: "128\n", want: 128},
		{name: "zero", raw: "0", want: 0},
		{name: "max", raw: "255", want: 255},
		{name: "key value form", raw: "screen_brightness=42", want: 42},
		{name: "null setting", raw: "null", wantErr: true},
		{name: "above range", raw: "300", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "garbage", raw: "settings: command not found", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBrightness(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnippetBoundsLongOutput(t *testing.T) {
	long := strings.Repeat("x", 500)
	s := snippet(long)
	assert.Len(t, s, 203)
	assert.True(t, strings.HasSuffix(s, "..."))

	assert.Equal(t, "short", snippet("  short\n"))
}
