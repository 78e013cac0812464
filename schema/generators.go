package schema

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator defines the interface for ID generation
type IDGenerator interface {
	Generate() (any, error)
	Type() string
}

// NewGenerator returns the generator registered under name.
func NewGenerator(name string) (IDGenerator, error) {
	switch name {
	case "uuid":
		return UUIDGenerator{}, nil
	case "ulid":
		return NewULIDGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", name)
	}
}

// UUIDGenerator generates UUID v4 values rendered as strings.
type UUIDGenerator struct{}

func (g UUIDGenerator) Generate() (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

func (g UUIDGenerator) Type() string {
	return "uuid"
}

// ULIDGenerator generates monotonic ULID values rendered as strings.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

func (g *ULIDGenerator) Type() string {
	return "ulid"
}
