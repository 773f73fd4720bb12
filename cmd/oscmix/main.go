// Command oscmix bridges an OSC control surface to an RME-family USB
// audio interface over MIDI SysEx (spec.md §6 "CLI").
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gherlein/oscmix/pkg/devicemodel"
	"github.com/gherlein/oscmix/pkg/engine"
	"github.com/gherlein/oscmix/pkg/midiio"
	"github.com/gherlein/oscmix/pkg/oscio"
	"github.com/gherlein/oscmix/pkg/oscmixlog"
	"github.com/spf13/pflag"
)

const (
	defaultRecvAddr      = "127.0.0.1:7222"
	defaultSendAddr      = "127.0.0.1:8222"
	defaultMulticastAddr = "224.0.0.1:8222"
)

func main() {
	debug := pflag.BoolP("debug", "d", false, "Enable debug logging.")
	noMeters := pflag.BoolP("no-meters", "l", false, "Disable level metering.")
	multicast := pflag.BoolP("multicast", "m", false, "Send OSC to the multicast address when -s is not given.")
	recvAddr := pflag.StringP("recv", "r", defaultRecvAddr, "OSC receive address.")
	sendAddr := pflag.StringP("send", "s", "", "OSC send address.")
	portName := pflag.StringP("port", "p", "", "MIDI device name. Falls back to MIDIPORT env var.")
	device := pflag.String("device", "", devicemodel.DescriptorFlagUsage())
	pflag.Parse()

	logger := oscmixlog.New(*debug)

	descriptor, err := devicemodel.SelectDescriptor(*device)
	if err != nil {
		oscmixlog.Fatal(logger, err, "select device descriptor")
		os.Exit(1)
	}

	name := *portName
	if name == "" {
		name = os.Getenv("MIDIPORT")
	}

	midiPort, err := midiio.Open(name)
	if err != nil {
		oscmixlog.Fatal(logger, err, "open MIDI port")
		os.Exit(1)
	}
	defer midiPort.Close()

	send := *sendAddr
	if send == "" {
		if *multicast {
			send = defaultMulticastAddr
		} else {
			send = defaultSendAddr
		}
	}
	host, port, err := splitHostPort(send)
	if err != nil {
		oscmixlog.Fatal(logger, err, "parse send address")
		os.Exit(1)
	}
	oscWriter := oscio.NewWriter(host, port)

	oscReader, err := oscio.Listen(*recvAddr)
	if err != nil {
		oscmixlog.Fatal(logger, err, "listen for OSC")
		os.Exit(1)
	}
	defer oscReader.Close()

	e := engine.New(descriptor, midiPort, oscWriter, logger, !*noMeters)
	if err := e.Model().StartRefresh(); err != nil {
		oscmixlog.Fatal(logger, err, "start refresh")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := e.Run(ctx, oscReader); err != nil {
		oscmixlog.Fatal(logger, err, "run engine")
		os.Exit(1)
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return host, port, nil
}
