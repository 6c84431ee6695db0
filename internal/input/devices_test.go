package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDevices = `I: Bus=0019 Vendor=0000 Product=0001 Version=0000
N: Name="Power Button"
P: Phys=LNXPWRBN/button/input0
S: Sysfs=/devices/LNXSYSTM:00/LNXPWRBN:00/input/input0
U: Uniq=
H: Handlers=kbd event0
B: PROP=0
B: EV=3
B: KEY=10000000000000 0

I: Bus=0018 Vendor=04f3 Product=2a1c Version=0100
N: Name="ELAN9008:00 04F3:2A1C"
P: Phys=i2c-ELAN9008:00
S: Sysfs=/devices/pci0000:00/i2c-ELAN9008:00/input/input12
U: Uniq=
H: Handlers=mouse1 event5
B: PROP=2
B: EV=1b
B: KEY=400 0 0 0 0 0
B: ABS=260800000000003
B: MSC=20

I: Bus=0019 Vendor=0000 Product=0000 Version=0000
N: Name="gpio-keys"
P: Phys=gpio-keys/input0
H: Handlers=kbd event2
B: EV=3
B: KEY=c000000000000 0
`

func TestParseDeviceList(t *testing.T) {
	devices, err := ParseDeviceList(strings.NewReader(sampleDevices))
	require.NoError(t, err)
	require.Len(t, devices, 3)

	power, touch, keys := devices[0], devices[1], devices[2]

	assert.Equal(t, "Power Button", power.Name)
	assert.Equal(t, "/dev/input/event0", power.EventNode())
	assert.False(t, power.HasMultitouch())
	assert.True(t, power.HasKeys(116))
	assert.False(t, power.HasKeys(KeyVolumeUp))

	assert.Equal(t, "ELAN9008:00 04F3:2A1C", touch.Name)
	assert.Equal(t, []string{"mouse1", "event5"}, touch.Handlers)
	assert.True(t, touch.HasMultitouch())

	assert.True(t, keys.HasKeys(KeyVolumeUp, KeyVolumeDown))
	assert.False(t, keys.HasMultitouch())

	selected := Select(devices, DefaultKeyMap())
	require.Len(t, selected, 2)
	assert.Equal(t, "/dev/input/event5", selected[0].EventNode())
	assert.Equal(t, "/dev/input/event2", selected[1].EventNode())
}

func TestParseBitmap(t *testing.T) {
	bm, err := ParseBitmap("1 8000000000000000")
	require.NoError(t, err)
	assert.True(t, bm.Has(63))
	assert.True(t, bm.Has(64))
	assert.False(t, bm.Has(0))
	assert.False(t, bm.Has(500))

	_, err = ParseBitmap("zz")
	assert.Error(t, err)
}

func TestParseDeviceListBadBitmap(t *testing.T) {
	_, err := ParseDeviceList(strings.NewReader("N: Name=\"x\"\nB: EV=nothex\n"))
	assert.ErrorContains(t, err, "EV")
}
