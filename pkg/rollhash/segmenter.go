package rollhash

// Segmenter accumulates bytes into the current phrase and reports when a
// trigger string closes it, per the segmentation algorithm in spec.md
// §4.5. It is shared machinery: both the reference pre-parse (C4) and the
// per-sample parser (C5) drive one Segmenter each; forced cuts (contig and
// sample transitions, final padding) are the caller's responsibility since
// only the caller knows where those boundaries fall.
type Segmenter struct {
	hasher *Hasher
	buf    []byte // bytes of the phrase under construction, from its start
}

// NewSegmenter creates a Segmenter with the given trigger window.
func NewSegmenter(window int) *Segmenter {
	return &Segmenter{hasher: New(window)}
}

// Window returns the configured trigger-window length.
func (s *Segmenter) Window() int { return s.hasher.Window() }

// Pending returns the bytes accumulated for the phrase under construction
// so far (read-only; callers must not mutate the returned slice).
func (s *Segmenter) Pending() []byte { return s.buf }

// Feed appends one byte and reports whether it completed a trigger
// string, in which case cut is true and closed holds the just-finished
// phrase's bytes (a fresh copy). On a cut, the segmenter immediately
// begins the next phrase with the trigger string itself (the required
// W-byte overlap, spec.md invariant 2).
func (s *Segmenter) Feed(b byte) (closed []byte, cut bool) {
	s.buf = append(s.buf, b)

	w := s.hasher.Window()
	if len(s.buf) < w {
		return nil, false
	}

	if len(s.buf) == w {
		s.hasher.Initialize(s.buf)
	} else {
		out := s.buf[len(s.buf)-w-1]
		s.hasher.Update(out, b)
	}

	if !s.hasher.IsTrigger() {
		return nil, false
	}

	return s.cut(), true
}

// Pad appends n copies of b to the phrase under construction without
// consulting the rolling hash. Used to satisfy forced-cut rule 3 (pad the
// final phrase with trailing DOLLARs).
func (s *Segmenter) Pad(b byte, n int) {
	for i := 0; i < n; i++ {
		s.buf = append(s.buf, b)
	}
}

// ForceCut closes the phrase under construction unconditionally — used at
// sentinel transitions (forced-cut rules 1 and 2) and after final padding
// (rule 3). The caller must ensure at least Window() bytes have
// accumulated before calling ForceCut (Pad can top up a short final
// phrase).
func (s *Segmenter) ForceCut() []byte {
	return s.cut()
}

// Resync discards the phrase under construction and reseeds the window
// directly with exactly Window() known bytes, skipping the per-byte
// Update calls that would otherwise be needed to reach this state. Used
// by the sample parser's acceleration path after bulk-copying reference
// phrase ids, to resume rolling-hash segmentation from the copied run's
// trailing W bytes without re-hashing them one at a time.
func (s *Segmenter) Resync(window []byte) {
	w := s.hasher.Window()
	if len(window) != w {
		panic("rollhash: Resync requires exactly Window() bytes")
	}

	s.buf = append([]byte(nil), window...)
	s.hasher.Initialize(s.buf)
}

func (s *Segmenter) cut() []byte {
	w := s.hasher.Window()

	phrase := append([]byte(nil), s.buf...)

	overlap := s.buf[len(s.buf)-w:]
	s.buf = append([]byte(nil), overlap...)
	s.hasher.Initialize(s.buf)

	return phrase
}
