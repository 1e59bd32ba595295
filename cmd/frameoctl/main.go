package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

const defaultServer = "http://localhost:5000"

func usage() {
	fmt.Fprintf(os.Stderr, `frameoctl - control a Frameo photo frame over ADB

Usage:
  frameoctl [flags] <command> [args]

Commands:
  devices                                list cable-attached devices
  connect usb <serial>                   open a USB session
  connect network <host> [port]          open a network session
  disconnect                             release the session
  state                                  screen power and brightness
  shell <command...>                     run a shell command on the device
  tcpip [port]                           enable ADB over TCP (USB session only)
  wake | sleep                           screen power
  brightness <level>                     set brightness (0-255)
  tap <x> <y>                            inject a touch
  swipe <x1> <y1> <x2> <y2> [ms]         inject a swipe
  keyevent <code>                        inject a key press
  app <open|restart|force-stop>          control the Frameo app
  screenshot [file.png]                  capture the screen
  upload <file>                          push a photo to the frame
  download <remote-path> [file]          pull a file from the device

Flags:
`)
	pflag.PrintDefaults()
}

func main() {
	server := pflag.StringP("server", "s", defaultServer, "control service base URL")
	timeout := pflag.DurationP("timeout", "t", 2*time.Minute, "request timeout")
	pflag.Usage = usage
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cli := newClient(*server, *timeout)
	if err := cli.dispatch(args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
