//go:build !linux

package platform

import (
	"context"
	"errors"

	"github.com/stigoleg/kiosk-guard/internal/input"
)

// ErrUnsupported is returned by every backend on platforms without a kiosk
// implementation.
var ErrUnsupported = errors.New("unsupported platform")

type unsupportedExclusiveMode struct{}

func (unsupportedExclusiveMode) AcquireExclusiveMode() error { return ErrUnsupported }
func (unsupportedExclusiveMode) ReleaseExclusiveMode() error { return ErrUnsupported }

// New returns backends that report ErrUnsupported. The surface is nil so
// immersion calls become no-ops.
func New(opts Options) (*Platform, error) {
	return &Platform{
		Exclusive: unsupportedExclusiveMode{},
		openInput: func(ctx context.Context) (<-chan input.Event, error) {
			return nil, ErrUnsupported
		},
	}, nil
}
