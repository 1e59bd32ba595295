package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type client struct {
	http *resty.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout),
	}
}

func (c *client) dispatch(command string, args []string) error {
	switch command {
	case "devices":
		return c.devices()
	case "connect":
		return c.connect(args)
	case "disconnect":
		return c.postJSON("/disconnect", nil)
	case "state":
		return c.getJSON("/state")
	case "shell":
		if len(args) == 0 {
			return fmt.Errorf("usage: shell <command...>")
		}
		return c.postJSON("/shell", map[string]any{"command": strings.Join(args, " ")})
	case "tcpip":
		body := map[string]any{}
		if len(args) > 0 {
			port, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[0])
			}
			body["port"] = port
		}
		return c.postJSON("/tcpip", body)
	case "wake":
		return c.postJSON("/wake", nil)
	case "sleep":
		return c.postJSON("/sleep", nil)
	case "brightness":
		if len(args) != 1 {
			return fmt.Errorf("usage: brightness <level>")
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid level %q", args[0])
		}
		return c.postJSON("/brightness", map[string]any{"level": level})
	case "tap":
		coords, err := ints(args, 2)
		if err != nil {
			return fmt.Errorf("usage: tap <x> <y>")
		}
		return c.postJSON("/tap", map[string]any{"x": coords[0], "y": coords[1]})
	case "swipe":
		return c.swipe(args)
	case "keyevent":
		if len(args) != 1 {
			return fmt.Errorf("usage: keyevent <code>")
		}
		return c.postJSON("/keyevent", map[string]any{"code": args[0]})
	case "app":
		if len(args) != 1 {
			return fmt.Errorf("usage: app <open|restart|force-stop>")
		}
		return c.postJSON("/app", map[string]any{"action": args[0]})
	case "screenshot":
		return c.screenshot(args)
	case "upload":
		return c.upload(args)
	case "download":
		return c.download(args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c *client) devices() error {
	return c.getJSON("/devices/usb")
}

func (c *client) connect(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: connect usb <serial> | connect network <host> [port]")
	}
	body := map[string]any{"type": args[0]}
	switch args[0] {
	case "usb":
		if len(args) != 2 {
			return fmt.Errorf("usage: connect usb <serial>")
		}
		body["serial"] = args[1]
	case "network":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: connect network <host> [port]")
		}
		body["host"] = args[1]
		if len(args) == 3 {
			port, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[2])
			}
			body["port"] = port
		}
	default:
		return fmt.Errorf("connection type must be usb or network")
	}
	return c.postJSON("/connect", body)
}

func (c *client) swipe(args []string) error {
	if len(args) != 4 && len(args) != 5 {
		return fmt.Errorf("usage: swipe <x1> <y1> <x2> <y2> [duration-ms]")
	}
	vals, err := ints(args, len(args))
	if err != nil {
		return err
	}
	body := map[string]any{"x1": vals[0], "y1": vals[1], "x2": vals[2], "y2": vals[3]}
	if len(vals) == 5 {
		body["duration_ms"] = vals[4]
	}
	return c.postJSON("/swipe", body)
}

func (c *client) screenshot(args []string) error {
	out := fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405"))
	if len(args) > 0 {
		out = args[0]
	}

	resp, err := c.http.R().Get("/screenshot")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	if err := os.WriteFile(out, resp.Body(), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(resp.Body()))
	return nil
}

func (c *client) upload(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: upload <file>")
	}

	resp, err := c.http.R().
		SetFile("file", args[0]).
		Post("/upload")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	printJSON(resp.Body())
	return nil
}

func (c *client) download(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: download <remote-path> [file]")
	}
	out := filepath.Base(args[0])
	if len(args) == 2 {
		out = args[1]
	}

	resp, err := c.http.R().
		SetBody(map[string]any{"remote_path": args[0]}).
		Post("/download")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	if err := os.WriteFile(out, resp.Body(), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes, %s)\n", out, len(resp.Body()), resp.Header().Get("Content-Type"))
	return nil
}

func (c *client) getJSON(path string) error {
	resp, err := c.http.R().Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	printJSON(resp.Body())
	return nil
}

func (c *client) postJSON(path string, body map[string]any) error {
	req := c.http.R()
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	printJSON(resp.Body())
	return nil
}

func apiError(resp *resty.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(resp.Body(), &body) == nil && body.Error != "" {
		return fmt.Errorf("%s (%s)", body.Error, resp.Status())
	}
	return fmt.Errorf("request failed: %s", resp.Status())
}

func printJSON(raw []byte) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d integer arguments", n)
	}
	vals := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", a)
		}
		vals[i] = v
	}
	return vals, nil
}
