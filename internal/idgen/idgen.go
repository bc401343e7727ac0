// Package idgen generates document ids and order confirmation numbers.
package idgen

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConfirmationPrefix starts every confirmation number.
const ConfirmationPrefix = "AA"

// Generator produces ids and confirmation numbers.
type Generator interface {
	// NewID returns a new unique document id.
	NewID() string

	// ConfirmationNumber returns a human-facing reference of the form
	// AA + yyyyMMdd + four random digits. Uniqueness is probabilistic.
	ConfirmationNumber(now time.Time) string
}

type systemGenerator struct{}

// New returns a generator backed by crypto-random uuids and the runtime RNG.
func New() Generator {
	return systemGenerator{}
}

func (systemGenerator) NewID() string {
	return uuid.NewString()
}

func (systemGenerator) ConfirmationNumber(now time.Time) string {
	return formatConfirmation(now, rand.IntN(9000))
}

// seededGenerator is deterministic for a given seed.
type seededGenerator struct {
	mu  sync.Mutex
	src *rand.ChaCha8
	rng *rand.Rand
}

// NewSeeded returns a deterministic generator, safe for concurrent use.
func NewSeeded(seed uint64) Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	src := rand.NewChaCha8(key)
	return &seededGenerator{
		src: src,
		rng: rand.New(src),
	}
}

func (g *seededGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		// ChaCha8 reads never fail.
		panic(fmt.Sprintf("idgen: seeded uuid: %v", err))
	}
	return id.String()
}

func (g *seededGenerator) ConfirmationNumber(now time.Time) string {
	g.mu.Lock()
	n := g.rng.IntN(9000)
	g.mu.Unlock()
	return formatConfirmation(now, n)
}

func formatConfirmation(now time.Time, n int) string {
	return fmt.Sprintf("%s%s%04d", ConfirmationPrefix, now.UTC().Format("20060102"), 1000+n)
}
