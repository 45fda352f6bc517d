package rollhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMatchesStringHash(t *testing.T) {
	t.Parallel()

	h := New(5)
	h.Initialize([]byte("12345"))

	assert.Equal(t, StringHash([]byte("12345")), h.Hash())
}

func TestSlideMatchesSpecScenario(t *testing.T) {
	t.Parallel()

	h := New(5)
	h.Initialize([]byte("12345"))
	require.Equal(t, uint64(842216599), h.Hash())

	h.Update('1', '6')
	assert.Equal(t, uint64(859059610), h.Hash())

	h.Update('2', '7')
	assert.Equal(t, uint64(875902621), h.Hash())
}

func TestPeriodicWindowUnchangedOnIdenticalSlide(t *testing.T) {
	t.Parallel()

	h := New(5)
	h.Initialize([]byte("11111"))
	require.Equal(t, uint64(825307539), h.Hash())

	h.Update('1', '1')
	assert.Equal(t, uint64(825307539), h.Hash())
}

func TestSlidingAgreesWithOneShotAlongArbitraryPath(t *testing.T) {
	t.Parallel()

	const window = 6

	stream := []byte("the quick brown fox jumps over the lazy dog\x00\x00\x00\x00\x00")

	h := New(window)
	h.Initialize(stream[:window])

	for i := window; i < len(stream); i++ {
		h.Update(stream[i-window], stream[i])

		want := StringHash(stream[i-window+1 : i+1])
		assert.Equalf(t, want, h.Hash(), "position %d", i)
	}
}

func TestReservedSentinelBytesSlideCorrectly(t *testing.T) {
	t.Parallel()

	const window = 4

	stream := []byte{0xFF, 0xFE, 0xFD, 0xFC, 0xFB, 0xFA, 0x00, 0x01}

	h := New(window)
	h.Initialize(stream[:window])

	for i := window; i < len(stream); i++ {
		h.Update(stream[i-window], stream[i])

		want := StringHash(stream[i-window+1 : i+1])
		assert.Equal(t, want, h.Hash())
	}
}

func TestIsTrigger(t *testing.T) {
	t.Parallel()

	h := New(3)
	h.Initialize([]byte{0, 0, 0})
	assert.True(t, h.IsTrigger())
}
