package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CodeAlphabet leaves out characters that are easy to confuse when read
// aloud or typed: 0/O/o, 1/l/I.
const CodeAlphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	expectedCodes     = 100_000
	falsePositiveRate = 0.001
	maxDraws          = 4
)

// CodeSource produces candidate codes. Uniqueness is decided by the store;
// MarkTaken only lets a source avoid proposing a known code again.
type CodeSource interface {
	Next() (string, error)
	MarkTaken(code string)
}

// CodeGenerator draws nanoid codes and skips the ones this process has
// already issued or seen collide.
type CodeGenerator struct {
	length int

	mu    sync.Mutex
	taken *bloom.BloomFilter
}

// NewCodeGenerator returns a generator for codes of the given length.
func NewCodeGenerator(length int) *CodeGenerator {
	return &CodeGenerator{
		length: length,
		taken:  bloom.NewWithEstimates(expectedCodes, falsePositiveRate),
	}
}

func (g *CodeGenerator) Next() (string, error) {
	var code string
	for i := 0; i < maxDraws; i++ {
		candidate, err := gonanoid.Generate(CodeAlphabet, g.length)
		if err != nil {
			return "", err
		}
		code = candidate
		if !g.seen(candidate) {
			return candidate, nil
		}
	}
	// The filter can report false positives; let the store decide.
	return code, nil
}

func (g *CodeGenerator) MarkTaken(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.taken.AddString(code)
}

func (g *CodeGenerator) seen(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.taken.TestString(code)
}
