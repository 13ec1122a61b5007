package usb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

type (
	DescriptorType uint8

	Descriptor interface {
		Type() DescriptorType
	}

	DescriptorHeader struct {
		Length         uint8
		DescriptorType DescriptorType
	}

	UnknownDescriptor struct {
		DescriptorHeader
		Data []byte
	}

	// DescriptorParser lets a registered descriptor type take over its own
	// decoding (the HID descriptor in package hid needs this: its layout
	// has a repeating optional-descriptor tail).
	DescriptorParser interface {
		ReadUSBDescriptor(hdr DescriptorHeader, i io.Reader) error
	}
)

const (
	DescriptorTypeDevice = DescriptorType(iota + 1)
	DescriptorTypeConfig
	DescriptorTypeString
	DescriptorTypeInterface
	DescriptorTypeEndpoint
)

var (
	descriptorMap = map[DescriptorType]reflect.Type{
		DescriptorTypeDevice:    reflect.TypeOf(DeviceDescriptor{}),
		DescriptorTypeConfig:    reflect.TypeOf(ConfigurationDescriptor{}),
		DescriptorTypeInterface: reflect.TypeOf(InterfaceDescriptor{}),
		DescriptorTypeEndpoint:  reflect.TypeOf(EndpointDescriptor{}),
		DescriptorTypeString:    reflect.TypeOf(StringDescriptor{}),
	}
)

func (h DescriptorHeader) Type() DescriptorType {
	return h.DescriptorType
}

func (t DescriptorType) String() string {
	if typ, exist := descriptorMap[t]; exist {
		return typ.String()
	}
	return fmt.Sprintf("Unknown(0x%.2X)", uint8(t))
}

type (
	// DeviceDescriptor describes general information about a device. A
	// device has only one DeviceDescriptor.
	DeviceDescriptor struct {
		DescriptorHeader
		BcdUSB             uint16
		BDeviceClass       ClassCode
		BDeviceSubClass    SubClass
		BDeviceProtocol    uint8
		BMaxPacketSize0    uint8
		IDVendor           uint16
		IDProduct          uint16
		BcdDevice          uint16
		IManufacturer      uint8
		IProduct           uint8
		ISerialNumber      uint8
		BNumConfigurations uint8
	}

	// ConfigurationDescriptor describes one device configuration. When the
	// host requests the configuration descriptor, all related interface,
	// endpoint and class-specific descriptors are returned concatenated
	// behind it (see ReadDescriptors).
	ConfigurationDescriptor struct {
		DescriptorHeader
		WTotalLength        uint16
		BNumInterfaces      uint8
		BConfigurationValue uint8
		IConfiguration      uint8
		BmAttributes        uint8
		BMaxPower           uint8
	}

	// InterfaceDescriptor describes a specific interface within a
	// configuration, identified by (BInterfaceNumber, BAlternateSetting).
	// A HID interface sets BInterfaceClass to ClassCodeInterfaceHID (0x03); the HID
	// class descriptor (package hid) immediately follows it in the
	// configuration descriptor stream.
	InterfaceDescriptor struct {
		DescriptorHeader
		BInterfaceNumber   uint8
		BAlternateSetting  uint8
		BNumEndpoints      uint8
		BInterfaceClass    ClassCode
		BInterfaceSubClass SubClass
		BInterfaceProtocol uint8
		IInterface         uint8
	}

	// EndpointDescriptor describes the bandwidth/transfer characteristics
	// of one endpoint. HID devices normally expose one interrupt IN
	// endpoint (reports) and optionally one interrupt OUT endpoint.
	EndpointDescriptor struct {
		DescriptorHeader
		BEndpointAddress uint8
		BmAttributes     uint8
		WMaxPacketSize   uint16
		BInterval        uint8
	}

	// StringDescriptor holds either a UTF-16LE string (for a nonzero
	// language ID) or an array of supported LANGIDs (index 0). This
	// engine never resolves string indices against the device — see
	// spec.md §1 Non-goals — the type exists only so ReadDescriptors can
	// walk past string descriptors without erroring.
	StringDescriptor struct {
		DescriptorHeader
		Data []byte
	}
)

// RegisterDescriptorType lets a class package (e.g. hid) teach the
// generic descriptor reader about its own descriptor layout.
func RegisterDescriptorType(typ DescriptorType, desc Descriptor) {
	descriptorMap[typ] = reflect.TypeOf(desc)
}

func readDescriptorHeader(i io.Reader) (*DescriptorHeader, error) {
	header := &DescriptorHeader{}
	err := binary.Read(i, binary.LittleEndian, header)
	return header, err
}

func newDescriptor(hdr DescriptorHeader) (any, reflect.Value) {
	if descriptor, exist := descriptorMap[hdr.DescriptorType]; exist {
		x := reflect.New(descriptor)
		x.Elem().Field(0).Set(reflect.ValueOf(hdr))
		return x.Interface(), x
	}
	x := reflect.New(reflect.TypeOf(UnknownDescriptor{}))
	x.Elem().Field(0).Set(reflect.ValueOf(hdr))
	return x.Interface(), x
}

func readDescriptor(header *DescriptorHeader, i io.Reader) (Descriptor, error) {
	descriptor, ptrVal := newDescriptor(*header)
	if customReader, implements := descriptor.(DescriptorParser); implements {
		if err := customReader.ReadUSBDescriptor(*header, i); err != nil {
			return nil, err
		}
		return descriptor.(Descriptor), nil
	}
	elem := ptrVal.Elem()

loop:
	for elemIndex := 1; elemIndex < elem.NumField(); elemIndex++ {
		field := elem.Field(elemIndex)
		dest := field.Addr().Interface()

		switch field.Kind() {
		case reflect.Slice:
			switch field.Type() {
			case reflect.TypeOf([]uint8{}):
				excessiveData, err := io.ReadAll(i)
				field.Set(reflect.ValueOf(excessiveData))
				if err != nil {
					return nil, err
				}
			default:
				if err := binary.Read(i, binary.LittleEndian, dest); err != nil {
					break loop
				}
			}
		default:
			if err := binary.Read(i, binary.LittleEndian, dest); err != nil {
				break loop
			}
		}
	}
	return descriptor.(Descriptor), nil
}

// ReadDescriptors walks a concatenated stream of length-prefixed USB
// descriptors (as returned by a GetDescriptor(Configuration) request, or
// by the kernel's sysfs "descriptors" attribute) and invokes descriptorCB
// once per descriptor, in stream order.
func ReadDescriptors(i io.Reader, descriptorCB func(d Descriptor)) error {
	var err error
	var hdr *DescriptorHeader
	for hdr, err = readDescriptorHeader(i); err == nil; hdr, err = readDescriptorHeader(i) {
		length := int(hdr.Length) - 2
		body := make([]byte, length)
		if _, rerr := io.ReadFull(i, body); rerr != nil {
			return rerr
		}
		descriptor, derr := readDescriptor(hdr, bytes.NewReader(body))
		if derr != nil {
			return derr
		}
		descriptorCB(descriptor)
	}
	if err == io.EOF {
		return nil
	}
	return err
}

// ParseDescriptor decodes exactly one length-prefixed descriptor from the
// front of data.
func ParseDescriptor(data []byte) (Descriptor, error) {
	reader := bytes.NewReader(data)
	hdr, err := readDescriptorHeader(reader)
	if err != nil {
		return nil, err
	}
	return readDescriptor(hdr, reader)
}
