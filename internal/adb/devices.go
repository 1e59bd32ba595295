package adb

import (
	"context"
	"strings"
)

// Device is one row of adb devices -l output.
type Device struct {
	Serial      string `json:"serial"`
	State       string `json:"state"`
	Product     string `json:"product,omitempty"`
	Model       string `json:"model,omitempty"`
	Device      string `json:"device,omitempty"`
	TransportID string `json:"transport_id,omitempty"`
}

// IsNetwork reports whether the device row is a TCP endpoint rather than a
// cable-attached device.
func (d Device) IsNetwork() bool {
	return strings.Contains(d.Serial, ":")
}

// ListDevices returns every device the adb server currently tracks.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	c.StartServer(ctx)
	out, err := c.run(ctx, "devices", "-l")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

// ListUSBDevices returns cable-attached devices, regardless of authorization
// state. Discovery works independently of any open session.
func (c *Client) ListUSBDevices(ctx context.Context) ([]Device, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	var usb []Device
	for _, d := range devices {
		if !d.IsNetwork() {
			usb = append(usb, d)
		}
	}
	return usb, nil
}

// parseDevices parses adb devices -l output. Lines look like:
//
//	ABC123  device usb:1-4 product:frameo model:Frameo_10 device:rk3126c transport_id:1
//	192.168.1.10:5555  offline transport_id:2
func parseDevices(output string) []Device {
	var res []Device
	for _, ln := range strings.Split(output, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		// Skip the header and server startup noise
		if strings.HasPrefix(ln, "List of devices") ||
			strings.HasPrefix(ln, "*") ||
			strings.Contains(ln, "daemon") {
			continue
		}
		f := strings.Fields(ln)
		if len(f) < 2 {
			continue
		}
		d := Device{Serial: f[0]}
		rest := f[1:]
		if len(rest) > 0 && !strings.Contains(rest[0], ":") {
			d.State = rest[0]
			rest = rest[1:]
		}
		for _, tok := range rest {
			kv := strings.SplitN(tok, ":", 2)
			if len(kv) != 2 {
				continue
			}
			switch kv[0] {
			case "product":
				d.Product = kv[1]
			case "model":
				d.Model = kv[1]
			case "device":
				d.Device = kv[1]
			case "transport_id":
				d.TransportID = kv[1]
			}
		}
		if d.Serial != "" {
			res = append(res, d)
		}
	}
	return res
}
