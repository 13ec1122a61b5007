package main

import (
	"fmt"
	"log/slog"

	usb "github.com/jbowen42/gohid"
	"github.com/jbowen42/gohid/hid"
)

// selectDevice finds the one attached HID device matching vendor/product
// (either may be left 0 to mean "don't care"), opens it and claims its
// HID interface. If more than one device matches, the first found wins
// and the rest are logged at debug level.
func selectDevice(vendor, product uint16) (*hid.Device, error) {
	devices, err := hid.FindHIDDevices()
	if err != nil {
		return nil, err
	}

	var candidates []*usb.Device
	for _, dev := range devices {
		desc := dev.GetDeviceDescriptor()
		if vendor != 0 && desc.IDVendor != vendor {
			continue
		}
		if product != 0 && desc.IDProduct != product {
			continue
		}
		candidates = append(candidates, dev)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("hidmon: no matching HID device found")
	}
	for _, extra := range candidates[1:] {
		desc := extra.GetDeviceDescriptor()
		slog.Debug("ignoring additional matching device", "vendor", desc.IDVendor, "product", desc.IDProduct)
	}

	dev := candidates[0]
	if err := dev.Open(); err != nil {
		return nil, fmt.Errorf("hidmon: opening device: %w", err)
	}

	hidDev := hid.NewHIDDevice(dev)
	if hidDev.Interface == nil {
		return nil, fmt.Errorf("hidmon: device exposes no HID interface")
	}
	if err := dev.ClaimInterface(int(hidDev.Interface.BInterfaceNumber)); err != nil {
		return nil, fmt.Errorf("hidmon: claiming interface: %w", err)
	}
	return hidDev, nil
}
