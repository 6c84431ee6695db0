//go:build linux

package linux

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/stigoleg/kiosk-guard/internal/input"
)

const (
	inputDevicesPath = "/proc/bus/input/devices"

	// ioctl encoding, asm-generic/ioctl.h
	iocRead      = 2
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	evdevNameLen  = 256
	readBatchSize = 64
)

var (
	timevalSize    = int(unsafe.Sizeof(unix.Timeval{}))
	inputEventSize = timevalSize + 8
)

func iocR(nr, size uintptr) uintptr {
	return iocRead<<iocDirShift | size<<iocSizeShift | 'E'<<iocTypeShift | nr<<iocNRShift
}

func eviocgname(size uintptr) uintptr { return iocR(0x06, size) }

// eviocgabs reads struct input_absinfo (six int32) for an absolute axis.
func eviocgabs(axis uintptr) uintptr { return iocR(0x40+axis, 6*4) }

func eviocgmtslots(size uintptr) uintptr { return iocR(0x0a, size) }

// maxSlots bounds the EVIOCGMTSLOTS buffer; touch screens report ten or
// fewer.
const maxSlots = 64

// EvdevDevice is an open /dev/input/event* node.
type EvdevDevice struct {
	Path string
	Name string
	file *os.File
}

// OpenEvdev opens path read-only and queries the device name.
func OpenEvdev(path string) (*EvdevDevice, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device: %w", err)
	}

	d := &EvdevDevice{Path: path, file: f}
	buf := make([]byte, evdevNameLen)
	if err := d.ioctl(eviocgname(uintptr(len(buf))), unsafe.Pointer(&buf[0])); err == nil {
		d.Name = strings.TrimRight(string(buf), "\x00")
	}
	return d, nil
}

func (d *EvdevDevice) ioctl(req uintptr, arg unsafe.Pointer) error {
	raw, err := d.file.SyscallConn()
	if err != nil {
		return err
	}
	var errno unix.Errno
	if err := raw.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	}); err != nil {
		return err
	}
	if errno != 0 {
		return errno
	}
	return nil
}

// SlotState reads the current multitouch slot and the tracking id and
// position of every slot.
func (d *EvdevDevice) SlotState() (current int, slots []input.SlotState, err error) {
	var info [6]int32
	if err := d.ioctl(eviocgabs(input.AbsMTSlot), unsafe.Pointer(&info[0])); err != nil {
		return 0, nil, fmt.Errorf("EVIOCGABS(ABS_MT_SLOT): %w", err)
	}
	n := int(info[2]) + 1 // maximum
	if n <= 0 || n > maxSlots {
		return 0, nil, fmt.Errorf("unexpected slot count %d", n)
	}

	read := func(code uint16) ([]int32, error) {
		buf := make([]int32, n+1)
		buf[0] = int32(code)
		if err := d.ioctl(eviocgmtslots(uintptr(len(buf)*4)), unsafe.Pointer(&buf[0])); err != nil {
			return nil, fmt.Errorf("EVIOCGMTSLOTS(%#x): %w", code, err)
		}
		return buf[1:], nil
	}
	ids, err := read(input.AbsMTTrackingID)
	if err != nil {
		return 0, nil, err
	}
	xs, err := read(input.AbsMTPositionX)
	if err != nil {
		return 0, nil, err
	}
	ys, err := read(input.AbsMTPositionY)
	if err != nil {
		return 0, nil, err
	}

	slots = make([]input.SlotState, n)
	for i := range slots {
		slots[i] = input.SlotState{TrackingID: ids[i], X: xs[i], Y: ys[i]}
	}
	return int(info[0]), slots, nil
}

// Close releases the device.
func (d *EvdevDevice) Close() error {
	return d.file.Close()
}

// ReadEvents reads raw events until ctx is done or the device fails. Closing
// the device on cancellation unblocks the pending read.
func (d *EvdevDevice) ReadEvents(ctx context.Context, emit func(input.RawEvent)) error {
	stop := context.AfterFunc(ctx, func() { d.file.Close() })
	defer stop()

	return decodeEvents(d.file, emit, func(err error) bool {
		return ctx.Err() != nil && errors.Is(err, os.ErrClosed)
	})
}

// decodeEvents parses struct input_event records from r. done reports
// whether a read error is the expected end of the stream.
func decodeEvents(r io.Reader, emit func(input.RawEvent), done func(error) bool) error {
	buf := make([]byte, inputEventSize*readBatchSize)
	pending := 0
	for {
		n, err := r.Read(buf[pending:])
		pending += n
		whole := pending - pending%inputEventSize
		for off := 0; off < whole; off += inputEventSize {
			rec := buf[off+timevalSize : off+inputEventSize]
			emit(input.RawEvent{
				Type:  binary.NativeEndian.Uint16(rec[0:2]),
				Code:  binary.NativeEndian.Uint16(rec[2:4]),
				Value: int32(binary.NativeEndian.Uint32(rec[4:8])),
			})
		}
		pending = copy(buf, buf[whole:pending])

		if err != nil {
			if err == io.EOF || done(err) {
				return nil
			}
			return err
		}
	}
}

// Discover lists input devices that report multitouch or the combo keys.
func Discover(keys input.KeyMap) ([]input.DeviceInfo, error) {
	f, err := os.Open(inputDevicesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := input.ParseDeviceList(f)
	if err != nil {
		return nil, err
	}
	return input.Select(all, keys), nil
}

// StreamInput opens every path and translates its events into out, one
// goroutine and translator per device. The returned channel closes when all
// readers have stopped.
func StreamInput(ctx context.Context, paths []string, keys input.KeyMap) (<-chan input.Event, error) {
	var devices []*EvdevDevice
	for _, p := range paths {
		d, err := OpenEvdev(p)
		if err != nil {
			log.Printf("linux: skipping %s: %v", p, err)
			continue
		}
		log.Printf("linux: reading input from %s (%s)", d.Path, d.Name)
		devices = append(devices, d)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no usable input devices among %v", paths)
	}

	out := make(chan input.Event, 64)
	var wg sync.WaitGroup
	for _, d := range devices {
		wg.Add(1)
		go func(d *EvdevDevice) {
			defer wg.Done()
			defer d.Close()
			tr := input.NewTranslator(keys)
			canRestore := true
			err := d.ReadEvents(ctx, func(raw input.RawEvent) {
				for _, ev := range tr.Feed(raw) {
					select {
					case out <- ev:
					case <-ctx.Done():
					}
				}
				if canRestore && tr.AwaitingState() {
					cur, slots, err := d.SlotState()
					if err != nil {
						// Fall back to waiting for the next ABS_MT_SLOT.
						log.Printf("linux: %s: reading slot state: %v", d.Path, err)
						canRestore = false
						return
					}
					tr.Restore(cur, slots)
				}
			})
			if err != nil {
				log.Printf("linux: input device %s stopped: %v", d.Path, err)
			}
		}(d)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}
