// Package rollhash implements the Karp–Rabin rolling hash used to find
// trigger strings (content-defined phrase boundaries) while segmenting a
// haplotype byte stream.
package rollhash

// Default parameters from the PFP construction. C is the polynomial base,
// P the modulus; both are chosen so that the modulus is a Mersenne prime
// large enough to keep mod-P arithmetic inside an int64 accumulator.
const (
	DefaultBase    uint64 = 256
	DefaultModulus uint64 = (1 << 31) - 1
)

// Hasher maintains a fixed-size sliding window and its Karp–Rabin hash.
//
//	H(s) = sum_i s[i] * C^(W-1-i)  (mod P)
//
// Update slides the window by one byte in O(1) using a precomputed
// C^W mod P multiplier.
type Hasher struct {
	base    uint64
	modulus uint64
	window  int

	// highCoeff is C^window mod P. Sliding the window by one byte is
	// equivalent to H' = H*C - outByte*C^window + inByte (mod P); highCoeff
	// is the coefficient Update multiplies the outgoing byte by.
	highCoeff uint64

	hash uint64
}

// New creates a Hasher for the given window size using the default base
// and modulus. window must be positive.
func New(window int) *Hasher {
	return NewWithParams(window, DefaultBase, DefaultModulus)
}

// NewWithParams creates a Hasher with an explicit base and modulus.
func NewWithParams(window int, base, modulus uint64) *Hasher {
	if window <= 0 {
		panic("rollhash: window must be positive")
	}

	h := &Hasher{
		base:    base % modulus,
		modulus: modulus,
		window:  window,
	}

	h.highCoeff = powMod(h.base, window, modulus)

	return h
}

// Window reports the configured window size.
func (h *Hasher) Window() int {
	return h.window
}

// Initialize resets the hasher to the hash of windowBytes, which must have
// exactly Window() bytes. It runs in O(window).
func (h *Hasher) Initialize(windowBytes []byte) {
	if len(windowBytes) != h.window {
		panic("rollhash: Initialize requires exactly window bytes")
	}

	var acc uint64

	for _, b := range windowBytes {
		acc = (mulMod(acc, h.base, h.modulus) + uint64(b)) % h.modulus
	}

	h.hash = acc
}

// Update slides the window forward by one byte: outByte leaves the window
// (it was the oldest byte) and inByte enters it (the newest byte). This is
// the O(1) operation that makes rolling segmentation linear in input size.
func (h *Hasher) Update(outByte, inByte byte) {
	leaving := mulMod(uint64(outByte), h.highCoeff, h.modulus)
	shifted := mulMod(h.hash, h.base, h.modulus)
	adjusted := (shifted + h.modulus - leaving) % h.modulus

	h.hash = (adjusted + uint64(inByte)) % h.modulus
}

// Hash returns the current window hash.
func (h *Hasher) Hash() uint64 {
	return h.hash
}

// IsTrigger reports whether the current window hash is a trigger position,
// i.e. hash mod P == 0. Since the hash is already stored reduced mod P,
// this is simply a zero check.
func (h *Hasher) IsTrigger() bool {
	return h.hash == 0
}

// StringHash computes the one-shot Karp–Rabin hash of s using the default
// parameters, equivalent to New(len(s)).Initialize(s).Hash(). It must agree
// with the hash produced by sliding into s along any path.
func StringHash(s []byte) uint64 {
	return NewWithParams(len(s), DefaultBase, DefaultModulus).hashBytes(s)
}

func (h *Hasher) hashBytes(s []byte) uint64 {
	var acc uint64

	for _, b := range s {
		acc = (mulMod(acc, h.base, h.modulus) + uint64(b)) % h.modulus
	}

	return acc
}

// powMod computes base^exp mod modulus via exponentiation by squaring.
func powMod(base uint64, exp int, modulus uint64) uint64 {
	result := uint64(1)
	base %= modulus

	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, base, modulus)
		}

		base = mulMod(base, base, modulus)
		exp >>= 1
	}

	return result
}

// mulMod computes (a*b) mod m. Every operand here is already reduced below
// m, and m itself never exceeds 2^31-1 per spec.md §4.1, so the product
// fits comfortably in uint64 without a wide-multiply fallback.
func mulMod(a, b, m uint64) uint64 {
	return (a * b) % m
}
