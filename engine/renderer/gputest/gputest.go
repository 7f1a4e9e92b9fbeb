// Package gputest provides helpers for tests that need a real GPU device.
package gputest

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Device returns a headless device, or skips the test when running with -short
// or when no adapter is available. The device is released on cleanup.
func Device(t testing.TB) renderer.Device {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping GPU test in -short mode")
	}
	dev, err := open()
	if err != nil {
		t.Skipf("no GPU adapter: %v", err)
	}
	t.Cleanup(dev.Release)
	return dev
}

// open converts a panic from the native layer into an error.
func open() (dev renderer.Device, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("creating instance: %v", r)
		}
	}()
	return renderer.NewHeadlessDevice(renderer.WithLabel("Test Device"))
}
