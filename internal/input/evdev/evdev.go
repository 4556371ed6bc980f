// Package evdev implements input.Source on top of the Linux evdev
// character devices (/dev/input/event*).
//
// Capability probing uses the EVIOCGBIT ioctl family; event delivery is
// one reader goroutine per device decoding raw input_event records.
package evdev

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/radio-control/rfkilld/internal/input"
)

// DefaultGlob matches every evdev node.
const DefaultGlob = "/dev/input/event*"

// input_event on 64-bit: struct timeval (16 bytes), u16 type, u16 code,
// s32 value.
const eventSize = 24

const (
	evKey = 0x01
	evSw  = 0x05

	keyCodeMax = 0x2ff
	swCodeMax  = 0x10
)

// Device is one evdev node exposed as an input.Source.
type Device struct {
	path string
	f    *os.File
	caps input.Capabilities
	log  zerolog.Logger

	mu         sync.Mutex
	registered *input.Handle
	open       bool
	done       chan struct{}
}

// OpenDevice opens an evdev node and probes its capabilities.
func OpenDevice(path string, log zerolog.Logger) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	caps, err := probeCapabilities(f.Fd())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "probe capabilities of %s", path)
	}

	return &Device{
		path: path,
		f:    f,
		caps: caps,
		log:  log.With().Str("device", path).Logger(),
	}, nil
}

// Capabilities returns the probed key and switch capabilities.
func (d *Device) Capabilities() input.Capabilities {
	return d.caps
}

// Name returns the device path.
func (d *Device) Name() string {
	return d.path
}

// Register attaches a handle. One handle per device.
func (d *Device) Register(h *input.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered != nil {
		return errors.Errorf("%s: handle already registered", d.path)
	}
	d.registered = h
	return nil
}

// Open starts the reader goroutine delivering events into the handle.
func (d *Device) Open(h *input.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered != h {
		return errors.Errorf("%s: handle not registered", d.path)
	}
	if d.open {
		return errors.Errorf("%s: handle already open", d.path)
	}
	d.open = true
	d.done = make(chan struct{})
	go d.readLoop(h, d.done)
	return nil
}

// Close stops event delivery and waits for the reader to exit.
func (d *Device) Close(h *input.Handle) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return
	}
	d.open = false
	done := d.done
	d.mu.Unlock()

	// Closing the fd unblocks the reader.
	d.f.Close()
	<-done
}

// Unregister detaches the handle.
func (d *Device) Unregister(h *input.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered == h {
		d.registered = nil
	}
}

func (d *Device) readLoop(h *input.Handle, done chan struct{}) {
	defer close(done)

	buf := make([]byte, eventSize*64)
	for {
		n, err := d.f.Read(buf)
		if err != nil {
			// EOF or closed fd means the device went away or Close ran.
			return
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			h.Deliver(decodeEvent(buf[off : off+eventSize]))
		}
	}
}

// Scan opens every node matching glob, keeps those the descriptor
// matches, and returns them. Nodes that cannot be opened are skipped
// with a log line; permission errors are routine when not running as
// root.
func Scan(glob string, desc input.Descriptor, log zerolog.Logger) ([]*Device, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", glob)
	}

	var devices []*Device
	for _, path := range paths {
		dev, err := OpenDevice(path, log)
		if err != nil {
			log.Debug().Err(err).Str("device", path).Msg("skipping input device")
			continue
		}
		if !desc.Matches(dev.caps) {
			dev.f.Close()
			continue
		}
		log.Info().Str("device", path).Msg("matched rfkill input device")
		devices = append(devices, dev)
	}
	return devices, nil
}

// probeCapabilities reads the EV, KEY and SW bitmaps.
func probeCapabilities(fd uintptr) (input.Capabilities, error) {
	caps := input.Capabilities{
		Keys:     make(map[uint16]bool),
		Switches: make(map[uint16]bool),
	}

	var evBits [4]byte // EV_MAX < 32
	if err := eviocgbit(fd, 0, evBits[:]); err != nil {
		return caps, err
	}

	if bitSet(evBits[:], evKey) {
		keyBits := make([]byte, keyCodeMax/8+1)
		if err := eviocgbit(fd, evKey, keyBits); err != nil {
			return caps, err
		}
		for code := uint16(0); code <= keyCodeMax; code++ {
			if bitSet(keyBits, int(code)) {
				caps.Keys[code] = true
			}
		}
	}

	if bitSet(evBits[:], evSw) {
		swBits := make([]byte, swCodeMax/8+1)
		if err := eviocgbit(fd, evSw, swBits); err != nil {
			return caps, err
		}
		for code := uint16(0); code <= swCodeMax; code++ {
			if bitSet(swBits, int(code)) {
				caps.Switches[code] = true
			}
		}
	}

	return caps, nil
}

// eviocgbit issues EVIOCGBIT(ev, len(buf)) on fd.
func eviocgbit(fd uintptr, ev int, buf []byte) error {
	const (
		iocRead      = 2
		iocDirShift  = 30
		iocSizeShift = 16
		iocTypeShift = 8
	)
	req := uintptr(iocRead)<<iocDirShift |
		uintptr('E')<<iocTypeShift |
		uintptr(0x20+ev) |
		uintptr(len(buf))<<iocSizeShift

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

// decodeEvent reads one input_event record. The 16-byte timeval prefix
// is skipped; the coordinator timestamps on delivery.
func decodeEvent(rec []byte) input.Event {
	return input.Event{
		Class: input.Class(binary.LittleEndian.Uint16(rec[16:18])),
		Code:  binary.LittleEndian.Uint16(rec[18:20]),
		Value: int32(binary.LittleEndian.Uint32(rec[20:24])),
	}
}

func bitSet(bits []byte, n int) bool {
	if n/8 >= len(bits) {
		return false
	}
	return bits[n/8]&(1<<(n%8)) != 0
}
