package adb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevices(t *testing.T) {
	out := `List of devices attached
ABC123                 device usb:1-4 product:frameo model:Frameo_10 device:rk3126c transport_id:1
192.168.1.10:5555      device product:frameo model:Frameo_10 device:rk3126c transport_id:2
DEF456                 unauthorized usb:1-5 transport_id:3

`
	devices := parseDevices(out)
	require.Len(t, devices, 3)

	assert.Equal(t, "ABC123", devices[0].Serial)
	assert.Equal(t, "device", devices[0].State)
	assert.Equal(t, "Frameo_10", devices[0].Model)
	assert.Equal(t, "frameo", devices[0].Product)
	assert.Equal(t, "1", devices[0].TransportID)
	assert.False(t, devices[0].IsNetwork())

	assert.Equal(t, "192.168.1.10:5555", devices[1].Serial)
	assert.True(t, devices[1].IsNetwork())

	assert.Equal(t, "DEF456", devices[2].Serial)
	assert.Equal(t, "unauthorized", devices[2].State)
}

func TestParseDevicesSkipsNoise(t *testing.T) {
	out := `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached
ABC123	device
`
	devices := parseDevices(out)
	require.Len(t, devices, 1)
	assert.Equal(t, "ABC123", devices[0].Serial)
	assert.Equal(t, "device", devices[0].State)
}

func TestParseDevicesEmpty(t *testing.T) {
	assert.Empty(t, parseDevices("List of devices attached\n\n"))
	assert.Empty(t, parseDevices(""))
}
