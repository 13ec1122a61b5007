package usbfs

// From /usr/bin/include/linux/usbdevice_fs.h

import (
	ioctl "github.com/daedaluz/goioctl"
	"strings"
	"unsafe"
)

var (
	USBDEVFS_CONTROL           = ioctl.IOWR('U', 0, unsafe.Sizeof(usbdevfs_ctrltransfer{}))
	USBDEVFS_BULK              = ioctl.IOWR('U', 2, unsafe.Sizeof(usbdevfs_bulktransfer{}))
	USBDEVFS_RESETEP           = ioctl.IOR('U', 3, unsafe.Sizeof(uint32(0)))
	USBDEVFS_SETINTERFACE      = ioctl.IOR('U', 4, unsafe.Sizeof(usbdevfs_setinterface{}))
	USBDEVFS_SETCONFIGURATION  = ioctl.IOR('U', 5, unsafe.Sizeof(uint32(0)))
	USBDEVFS_GETDRIVER         = ioctl.IOW('U', 8, unsafe.Sizeof(usbdevfs_getdriver{}))
	USBDEVFS_SUBMITURB         = ioctl.IOR('U', 10, unsafe.Sizeof(usbdevfs_urb{}))
	USBDEVFS_DISCARDURB        = ioctl.IO('U', 11)
	USBDEVFS_REAPURB           = ioctl.IOW('U', 12, unsafe.Sizeof(uintptr(0)))
	USBDEVFS_REAPURBNDELAY     = ioctl.IOW('U', 13, unsafe.Sizeof(uintptr(0)))
	USBDEVFS_DISCSIGNAL        = ioctl.IOR('U', 14, unsafe.Sizeof(usbdevfs_disconnectsignal{}))
	USBDEVFS_CLAIMINTERFACE    = ioctl.IOR('U', 15, unsafe.Sizeof(uint32(0)))
	USBDEVFS_RELEASEINTERFACE  = ioctl.IOR('U', 16, unsafe.Sizeof(uint32(0)))
	USBDEVFS_CONNECTINFO       = ioctl.IOW('U', 17, unsafe.Sizeof(usbdevfs_connectinfo{}))
	USBDEVFS_IOCTL             = ioctl.IOWR('U', 18, unsafe.Sizeof(usbdevfs_ioctl{}))
	USBDEVFS_HUB_PORTINFO      = ioctl.IOR('U', 19, unsafe.Sizeof(usbdevfs_hub_portinfo{}))
	USBDEVFS_RESET             = ioctl.IO('U', 20)
	USBDEVFS_CLEAR_HALT        = ioctl.IOR('U', 21, unsafe.Sizeof(uint32(0)))
	USBDEVFS_DISCONNECT        = ioctl.IO('U', 22)
	USBDEVFS_CONNECT           = ioctl.IO('U', 23)
	USBDEVFS_CLAIM_PORT        = ioctl.IOR('U', 24, unsafe.Sizeof(uint32(0)))
	USBDEVFS_RELEASE_PORT      = ioctl.IOR('U', 25, unsafe.Sizeof(uint32(0)))
	USBDEVFS_GET_CAPABILITIES  = ioctl.IOR('U', 26, unsafe.Sizeof(uint32(0)))
	USBDEVFS_DISCONNECT_CLAIM  = ioctl.IOR('U', 27, unsafe.Sizeof(usbdevfs_disconnect_claim{}))
	USBDEVFS_ALLOC_STREAMS     = ioctl.IOR('U', 28, unsafe.Sizeof(usbdevfs_streams{}))
	USBDEVFS_FREE_STREAMS      = ioctl.IOR('U', 29, unsafe.Sizeof(usbdevfs_streams{}))
	USBDEVFS_DROP_PRIVILEGES   = ioctl.IOW('U', 30, unsafe.Sizeof(uint32(0)))
	USBDEVFS_GET_SPEED         = ioctl.IO('U', 31)
)

type (
	usbdevfs_ctrltransfer struct {
		RequestType uint8
		Request     uint8
		Value       uint16
		Index       uint16
		Length      uint16
		Timeout     uint32
		Data        uintptr
	}
	usbdevfs_bulktransfer struct {
		Endpoint uint32
		Length   uint32
		Timeout  uint32
		Data     uintptr
	}

	usbdevfs_setinterface struct {
		Interface  uint32
		AltSetting uint32
	}

	usbdevfs_getdriver struct {
		Interface uint32
		Driver    [nUSBDEVFS_MAXDRIVERNAME + 1]byte
	}

	usbdevfs_urb struct {
		Type            uint8
		Endpoint        uint8
		Status          int32
		Flags           uint32
		Buffer          uintptr
		BufferLength    int32
		ActualLength    int32
		StartFrame      int32
		PacketsOrStream uint32 /* StreamID if bulk, number of packets if isoc */
		ErrorCount      int32
		SigNumber       uint32
		UserContext     uintptr
		/* iso_frame_desc... */
	}

	usbdevfs_disconnectsignal struct {
		Signr   uint32
		Context uintptr
	}

	usbdevfs_connectinfo struct {
		DevNum uint32
		Slow   uint8
	}

	usbdevfs_ioctl struct {
		Interface int32
		IoctlCode int32
		Data      uintptr
	}
	usbdevfs_hub_portinfo struct {
		NPorts uint8
		Port   [127]uint8
	}
	usbdevfs_disconnect_claim struct {
		Interface uint32
		Flags     uint32
		Driver    [nUSBDEVFS_MAXDRIVERNAME + 1]uint8
	}
	usbdevfs_streams struct {
		NumStreams   uint32
		NumEndpoints uint32
		/* Endpoints... */
	}
)

func (d *usbdevfs_getdriver) String() string {
	buff := strings.Builder{}
	for _, x := range d.Driver {
		if x == 0 {
			break
		}
		buff.WriteByte(x)
	}
	return buff.String()
}

func slicePtr(s []byte) uintptr {
	return uintptr(unsafe.Pointer(&s[0]))
}
