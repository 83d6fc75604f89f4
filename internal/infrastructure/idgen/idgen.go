// Package idgen provides the task identifier schemes.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"

	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/ports"
)

// Generator names accepted in configuration.
const (
	KindNanoID = "nanoid"
	KindHex    = "hex"
	KindUUID   = "uuid"
)

const (
	DefaultNanoIDLength = 10
	DefaultHexBytes     = 6
)

// Func adapts a plain function to ports.IDGenerator.
type Func func() string

func (f Func) NewID() string { return f() }

// NewNanoID returns a URL-safe nanoid generator of the given length.
func NewNanoID(length int) (ports.IDGenerator, error) {
	if length <= 0 {
		length = DefaultNanoIDLength
	}
	gen, err := nanoid.Standard(length)
	if err != nil {
		return nil, fmt.Errorf("failed to create nanoid generator: %w", err)
	}
	return Func(gen), nil
}

// NewHex returns a generator of n random bytes rendered as lowercase hex.
func NewHex(n int) ports.IDGenerator {
	if n <= 0 {
		n = DefaultHexBytes
	}
	return Func(func() string {
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			// The store treats an empty id as a failed draw.
			return ""
		}
		return hex.EncodeToString(buf)
	})
}

// NewUUID returns a random (v4) UUID generator.
func NewUUID() ports.IDGenerator {
	return Func(func() string {
		return uuid.NewString()
	})
}

// New builds the generator selected by cfg.
func New(cfg config.StoreConfig) (ports.IDGenerator, error) {
	switch cfg.IDGenerator {
	case KindNanoID, "":
		return NewNanoID(cfg.IDLength)
	case KindHex:
		// IDLength counts characters; two per byte.
		return NewHex(cfg.IDLength / 2), nil
	case KindUUID:
		return NewUUID(), nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", cfg.IDGenerator)
	}
}
