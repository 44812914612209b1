// Package amplitude derives a scalar loudness signal from the live output
// audio for console visualization.
package amplitude

import (
	"math"
	"sync"
)

// DefaultFFTSize is the analysis window length in samples.
const DefaultFFTSize = 256

// Analyser is a tap on the output audio path. It retains the most recent
// window of samples and exposes its frequency-domain magnitude spectrum.
type Analyser struct {
	mu      sync.Mutex
	fftSize int
	ring    []float64
	pos     int
	filled  bool
}

// NewAnalyser creates an analyser with the given window size.
// fftSize must be a power of two; zero selects DefaultFFTSize.
func NewAnalyser(fftSize int) *Analyser {
	if fftSize <= 0 {
		fftSize = DefaultFFTSize
	}
	// Round up to the next power of two.
	n := 1
	for n < fftSize {
		n <<= 1
	}
	return &Analyser{
		fftSize: n,
		ring:    make([]float64, n),
	}
}

// Feed appends output samples to the analysis window. Older samples fall
// out; only the most recent fftSize samples contribute to the spectrum.
func (a *Analyser) Feed(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range samples {
		a.ring[a.pos] = float64(s)
		a.pos++
		if a.pos == a.fftSize {
			a.pos = 0
			a.filled = true
		}
	}
}

// Reset clears the analysis window.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.ring {
		a.ring[i] = 0
	}
	a.pos = 0
	a.filled = false
}

// Spectrum returns the magnitude of each frequency bin (fftSize/2 bins),
// normalized so a full-scale sine lands near 1.0 in its bin.
func (a *Analyser) Spectrum() []float64 {
	a.mu.Lock()
	window := make([]float64, a.fftSize)
	// Unroll the ring so the window is in time order.
	for i := 0; i < a.fftSize; i++ {
		window[i] = a.ring[(a.pos+i)%a.fftSize]
	}
	a.mu.Unlock()

	re, im := fft(window)

	bins := make([]float64, a.fftSize/2)
	scale := 2.0 / float64(a.fftSize)
	for i := range bins {
		bins[i] = math.Hypot(re[i], im[i]) * scale
	}
	return bins
}

// MeanMagnitude returns the arithmetic mean across all frequency bins.
// This is the scalar the console visualizer consumes.
func (a *Analyser) MeanMagnitude() float64 {
	bins := a.Spectrum()
	if len(bins) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bins {
		sum += b
	}
	return sum / float64(len(bins))
}

// fft computes an in-order iterative radix-2 FFT of real input.
func fft(input []float64) (re, im []float64) {
	n := len(input)
	re = make([]float64, n)
	im = make([]float64, n)

	// Bit-reversal permutation.
	j := 0
	for i := 0; i < n; i++ {
		re[j] = input[i]
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j &^= bit
		}
		j |= bit
	}

	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		wRe, wIm := math.Cos(ang), math.Sin(ang)
		for start := 0; start < n; start += length {
			curRe, curIm := 1.0, 0.0
			half := length / 2
			for k := 0; k < half; k++ {
				i0, i1 := start+k, start+k+half
				tRe := re[i1]*curRe - im[i1]*curIm
				tIm := re[i1]*curIm + im[i1]*curRe
				re[i1] = re[i0] - tRe
				im[i1] = im[i0] - tIm
				re[i0] += tRe
				im[i0] += tIm
				curRe, curIm = curRe*wRe-curIm*wIm, curRe*wIm+curIm*wRe
			}
		}
	}
	return re, im
}
