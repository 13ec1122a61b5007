package usb

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	sysfsDeviceDir = "/sys/bus/usb/devices"
)

func readSysfsAttrInt(devName, attrName string) (int, error) {
	fileName := fmt.Sprintf("%s/%s/%s", sysfsDeviceDir, devName, attrName)
	data, err := os.ReadFile(fileName)
	if err != nil {
		return 0, err
	}
	strData := strings.Trim(string(data), "\n")
	value, err := strconv.ParseInt(strData, 10, 64)
	if err != nil {
		return 0, err
	}
	return int(value), nil
}

func openSysfsAttr(devName, attrName string) (*os.File, error) {
	fileName := fmt.Sprintf("%s/%s/%s", sysfsDeviceDir, devName, attrName)
	return os.Open(fileName)
}

func getDeviceAddress(devName string) (int, int, error) {
	busNum, err := readSysfsAttrInt(devName, "busnum")
	if err != nil {
		return 0, 0, err
	}
	devNum, err := readSysfsAttrInt(devName, "devnum")
	if err != nil {
		return 0, 0, err
	}
	return busNum, devNum, nil
}

// readSysfsDescriptors parses the kernel's pre-concatenated binary
// descriptor dump for a device (device, config, interface, endpoint and
// any class-specific descriptors back to back) via the generic
// descriptor reader in descriptor.go.
func readSysfsDescriptors(devName string) ([]Descriptor, error) {
	f, err := openSysfsAttr(devName, "descriptors")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := make([]Descriptor, 0, 10)
	err = ReadDescriptors(f, func(d Descriptor) {
		res = append(res, d)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EnumerateDevices lists every USB device currently attached, with its
// descriptor tree already parsed from sysfs.
func EnumerateDevices() ([]*Device, error) {
	dirs, err := os.ReadDir(sysfsDeviceDir)
	if err != nil {
		return nil, err
	}

	res := make([]*Device, 0, 10)

	for _, dir := range dirs {
		name := dir.Name()
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}
		descriptors, err := readSysfsDescriptors(name)
		if err != nil {
			return nil, err
		}
		busNum, devNum, err := getDeviceAddress(name)
		if err != nil {
			return nil, err
		}
		res = append(res, &Device{
			BusNumber:    busNum,
			DeviceNumber: devNum,
			Name:         name,
			Descriptors:  descriptors,
			fd:           -1,
		})
	}
	return res, nil
}

// FindDevices returns every enumerated device for which filter returns true.
func FindDevices(filter func(device *Device) bool) ([]*Device, error) {
	allDevices, err := EnumerateDevices()
	if err != nil {
		return nil, err
	}
	res := make([]*Device, 0, len(allDevices))
	for _, dev := range allDevices {
		if filter(dev) {
			res = append(res, dev)
		}
	}
	return res, nil
}
