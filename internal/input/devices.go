package input

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"
)

// Bitmap is a kernel capability bitmap as printed in /proc/bus/input/devices,
// least significant word first.
type Bitmap []uint64

// ParseBitmap parses space separated hex words, most significant first.
func ParseBitmap(s string) (Bitmap, error) {
	fields := strings.Fields(s)
	bm := make(Bitmap, len(fields))
	for i, f := range fields {
		w, err := strconv.ParseUint(f, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bitmap word %q: %w", f, err)
		}
		bm[len(fields)-1-i] = w
	}
	return bm, nil
}

// Has reports whether bit n is set. Words are the width of a kernel long.
func (b Bitmap) Has(n uint) bool {
	word := n / bits.UintSize
	if word >= uint(len(b)) {
		return false
	}
	return b[word]&(1<<(n%bits.UintSize)) != 0
}

// DeviceInfo is one block of /proc/bus/input/devices.
type DeviceInfo struct {
	Name     string
	Phys     string
	Handlers []string

	EV  Bitmap
	Key Bitmap
	Abs Bitmap
}

// EventNode returns the /dev/input path of the device's evdev handler, or ""
// when it has none.
func (d DeviceInfo) EventNode() string {
	for _, h := range d.Handlers {
		if strings.HasPrefix(h, "event") {
			return "/dev/input/" + h
		}
	}
	return ""
}

// HasMultitouch reports whether the device speaks multitouch protocol B.
func (d DeviceInfo) HasMultitouch() bool {
	return d.EV.Has(EvAbs) &&
		d.Abs.Has(AbsMTSlot) &&
		d.Abs.Has(AbsMTTrackingID) &&
		d.Abs.Has(AbsMTPositionX) &&
		d.Abs.Has(AbsMTPositionY)
}

// HasKeys reports whether the device can emit every code in keys.
func (d DeviceInfo) HasKeys(keys ...uint16) bool {
	if !d.EV.Has(EvKey) {
		return false
	}
	for _, k := range keys {
		if !d.Key.Has(uint(k)) {
			return false
		}
	}
	return true
}

// ParseDeviceList parses the contents of /proc/bus/input/devices.
func ParseDeviceList(r io.Reader) ([]DeviceInfo, error) {
	var (
		devices []DeviceInfo
		cur     *DeviceInfo
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if cur != nil {
				devices = append(devices, *cur)
				cur = nil
			}
			continue
		}
		if len(line) < 3 || line[1] != ':' {
			continue
		}
		if cur == nil {
			cur = &DeviceInfo{}
		}

		kind, rest := line[0], strings.TrimSpace(line[2:])
		key, value, _ := strings.Cut(rest, "=")
		switch kind {
		case 'N':
			cur.Name = strings.Trim(value, `"`)
		case 'P':
			cur.Phys = value
		case 'H':
			cur.Handlers = strings.Fields(value)
		case 'B':
			bm, err := ParseBitmap(value)
			if err != nil {
				return nil, fmt.Errorf("device %q: %s: %w", cur.Name, key, err)
			}
			switch key {
			case "EV":
				cur.EV = bm
			case "KEY":
				cur.Key = bm
			case "ABS":
				cur.Abs = bm
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		devices = append(devices, *cur)
	}
	return devices, nil
}

// Select returns the event nodes of devices that can feed either detector.
func Select(devices []DeviceInfo, keys KeyMap) []DeviceInfo {
	var out []DeviceInfo
	for _, d := range devices {
		if d.EventNode() == "" {
			continue
		}
		if d.HasMultitouch() || d.HasKeys(keys.Increase, keys.Decrease) {
			out = append(out, d)
		}
	}
	return out
}
