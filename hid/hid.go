// Package hid is the HID-class glue between a raw usb.Device and the
// hidreport decoding engine: it locates a device's HID interface and
// endpoints, fetches the HID class descriptor and report descriptor, and
// reads raw input reports. It owns no decoding logic of its own.
package hid

import (
	"fmt"
	"io"
	"log/slog"

	usb "github.com/jbowen42/gohid"
	"github.com/jbowen42/gohid/hidreport"
)

type (
	Device struct {
		*usb.Device
		Interface     *usb.InterfaceDescriptor
		HidDescriptor *Descriptor
		EpIn          *usb.EndpointDescriptor
		EpOut         *usb.EndpointDescriptor

		tree *hidreport.Node[hidreport.Field]
	}

	// Descriptor is the HID class descriptor (USB HID 1.11 §6.2.1). It
	// always carries at least one subordinate report descriptor entry;
	// ReadUSBDescriptor reads exactly as many (type, length) pairs as
	// NumDescriptors advertises, per the spec's optional-descriptor tail.
	Descriptor struct {
		usb.DescriptorHeader
		BcdHID           uint16
		CountryCode      uint8
		NumDescriptors   uint8
		DescriptorType   uint8
		DescriptorLength uint16
		Optional         []OptionalDescriptor
	}

	OptionalDescriptor struct {
		Type   uint8
		Length uint16
	}
)

const (
	DescriptorTypeHID      = usb.DescriptorType(0x21)
	DescriptorTypeReport   = usb.DescriptorType(0x22)
	DescriptorTypePhysical = usb.DescriptorType(0x23)
)

// Class-specific requests (USB HID 1.11 §7.2).
const (
	ReqGetReport   = 0x01
	ReqGetIdle     = 0x02
	ReqGetProtocol = 0x03
	ReqSetReport   = 0x09
	ReqSetIdle     = 0x0A
	ReqSetProtocol = 0x0B
)

func init() {
	usb.RegisterDescriptorType(DescriptorTypeHID, Descriptor{})
}

// ReadUSBDescriptor implements usb.DescriptorParser: the HID descriptor's
// fixed part is followed by NumDescriptors (type, length) pairs, the
// first of which is unpacked into DescriptorType/DescriptorLength for
// convenience (it is always the report descriptor) while the rest land
// in Optional.
func (d *Descriptor) ReadUSBDescriptor(hdr usb.DescriptorHeader, r io.Reader) error {
	d.DescriptorHeader = hdr
	var buf [3]byte
	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return err
	}
	d.BcdHID = uint16(buf[0]) | uint16(buf[1])<<8
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return err
	}
	d.CountryCode = buf[0]
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return err
	}
	d.NumDescriptors = buf[0]
	for i := uint8(0); i < d.NumDescriptors; i++ {
		if _, err := io.ReadFull(r, buf[:3]); err != nil {
			return err
		}
		typ := buf[0]
		length := uint16(buf[1]) | uint16(buf[2])<<8
		if i == 0 {
			d.DescriptorType = typ
			d.DescriptorLength = length
			continue
		}
		d.Optional = append(d.Optional, OptionalDescriptor{Type: typ, Length: length})
	}
	return nil
}

// NewHIDDevice wraps a usb.Device already known to expose a HID
// interface, picking out its class descriptor and interrupt endpoints.
func NewHIDDevice(dev *usb.Device) *Device {
	var hidDesc *Descriptor
	var iface *usb.InterfaceDescriptor
	var inEp, outEp *usb.EndpointDescriptor

	for _, d := range dev.Descriptors {
		switch desc := d.(type) {
		case *usb.InterfaceDescriptor:
			if desc.BInterfaceClass == usb.ClassCodeInterfaceHID {
				iface = desc
			}
		case *Descriptor:
			hidDesc = desc
		case *usb.EndpointDescriptor:
			if desc.BEndpointAddress&usb.EndpointDirectionIn != 0 {
				inEp = desc
			} else {
				outEp = desc
			}
		}
	}
	return &Device{
		Device:        dev,
		Interface:     iface,
		HidDescriptor: hidDesc,
		EpIn:          inEp,
		EpOut:         outEp,
	}
}

// ReadReport blocks for up to timeoutMs for one input report on the
// interrupt IN endpoint.
func (dev *Device) ReadReport(timeoutMs uint32) ([]byte, error) {
	if dev.EpIn == nil {
		return nil, fmt.Errorf("hid: device has no interrupt IN endpoint")
	}
	buffer := make([]byte, dev.EpIn.WMaxPacketSize)
	n, err := dev.Device.BulkTimeout(dev.EpIn.BEndpointAddress, buffer, timeoutMs)
	if err != nil {
		return nil, err
	}
	return buffer[:n], nil
}

// WriteReport sends an output report on the interrupt OUT endpoint.
func (dev *Device) WriteReport(data []byte) (int, error) {
	if dev.EpOut == nil {
		return 0, fmt.Errorf("hid: device has no interrupt OUT endpoint")
	}
	return dev.Device.BulkTimeout(dev.EpOut.BEndpointAddress, data, 1000)
}

// FetchReportDescriptor retrieves the raw report descriptor bytes via a
// standard GetDescriptor(Report) control request addressed to the
// interface (USB HID 1.11 §7.1.1).
func (dev *Device) FetchReportDescriptor() ([]byte, error) {
	if dev.HidDescriptor == nil {
		return nil, fmt.Errorf("hid: device has no HID class descriptor")
	}
	idx := uint16(0)
	if dev.Interface != nil {
		idx = uint16(dev.Interface.BInterfaceNumber)
	}
	reqType := usb.RequestDirectionIn | usb.RequestTypeStandard | usb.RequestRecipientInterface
	value := uint16(DescriptorTypeReport) << 8
	data := make([]byte, dev.HidDescriptor.DescriptorLength)
	_, err := dev.Device.Ctrl(reqType, usb.ReqGetDescriptor, value, idx, data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Tree parses (and caches) the device's report descriptor into a
// hidreport collection tree.
func (dev *Device) Tree() (*hidreport.Node[hidreport.Field], error) {
	if dev.tree != nil {
		return dev.tree, nil
	}
	raw, err := dev.FetchReportDescriptor()
	if err != nil {
		return nil, err
	}
	tree, err := hidreport.ParseDescriptor(raw)
	if err != nil {
		return nil, err
	}
	dev.tree = tree
	return tree, nil
}

// DecodeReport fetches the device's report tree (parsing and caching the
// descriptor on first use) and decodes one raw report against it.
func (dev *Device) DecodeReport(report []byte) (*hidreport.Node[[]hidreport.Input], error) {
	tree, err := dev.Tree()
	if err != nil {
		return nil, err
	}
	return hidreport.Decode(tree, report)
}

func (dev *Device) GetReport(reportType, reportID uint8, ifaceIdx uint16) ([]byte, error) {
	data := make([]byte, dev.HidDescriptor.DescriptorLength)
	reqType := usb.RequestDirectionIn | usb.RequestTypeClass | usb.RequestRecipientInterface
	value := uint16(reportType)<<8 | uint16(reportID)
	_, err := dev.Device.Ctrl(reqType, ReqGetReport, value, ifaceIdx, data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (dev *Device) GetIdle(interfaceIdx, reportID uint8) (int, error) {
	data := []byte{0}
	reqType := usb.RequestDirectionIn | usb.RequestTypeClass | usb.RequestRecipientInterface
	_, err := dev.Device.Ctrl(reqType, ReqGetIdle, uint16(reportID), uint16(interfaceIdx), data)
	if err != nil {
		return 0, err
	}
	return int(data[0]), nil
}

func (dev *Device) SetIdle(interfaceIdx, reportID, duration uint8) error {
	reqType := usb.RequestDirectionOut | usb.RequestTypeClass | usb.RequestRecipientInterface
	value := uint16(duration)<<8 | uint16(reportID)
	_, err := dev.Device.Ctrl(reqType, ReqSetIdle, value, uint16(interfaceIdx), nil)
	return err
}

func hidUSBFilter(device *usb.Device) bool {
	for _, desc := range device.Descriptors {
		if _, ok := desc.(*Descriptor); ok {
			return true
		}
	}
	return false
}

// FindHIDDevices enumerates every attached USB device exposing a HID
// class descriptor.
func FindHIDDevices() ([]*usb.Device, error) {
	devices, err := usb.FindDevices(hidUSBFilter)
	if err != nil {
		slog.Error("hid: enumeration failed", "error", err)
		return nil, err
	}
	return devices, nil
}
