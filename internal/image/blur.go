package image

import (
	"math"
	"sync"
)

// GaussianKernel generates a 1D Gaussian kernel for the given radius.
// The kernel is normalized so all values sum to 1.0.
//
// The kernel size is 2 * ceil(radius * 3) + 1, covering three standard
// deviations of the distribution. radius <= 0 returns the identity
// kernel [1.0].
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1.0}
	}

	sigma := radius
	halfSize := int(math.Ceil(sigma * 3))
	size := halfSize*2 + 1

	kernel := make([]float32, size)

	twoSigmaSq := 2 * sigma * sigma
	sum := float64(0)

	for i := 0; i < size; i++ {
		x := float64(i - halfSize)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	if sum > 0 {
		invSum := float32(1.0 / sum)
		for i := range kernel {
			kernel[i] *= invSum
		}
	}

	return kernel
}

// BlurPad returns the pixel margin a blur of the given radius reads
// beyond the region of interest. Callers capturing a backdrop expand
// their bounds by this much so edge pixels blur over real content.
func BlurPad(radius float64) int {
	if radius <= 0 {
		return 0
	}
	return int(math.Ceil(radius * 3))
}

// kernelCache caches computed Gaussian kernels keyed by quantized
// radius. Kernels are immutable after creation so callers share them.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int][]float32
	maxLen int
}

var defaultKernelCache = &kernelCache{
	cache:  make(map[int][]float32),
	maxLen: 64,
}

func (c *kernelCache) get(radius float64) []float32 {
	// Quantize radius to 0.01 precision.
	key := int(radius * 100)

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(radius)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Simple eviction: drop half the entries.
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// CachedGaussianKernel returns a shared, possibly cached kernel for
// the given radius. The returned slice must not be modified.
func CachedGaussianKernel(radius float64) []float32 {
	return defaultKernelCache.get(radius)
}

// Blur applies a separable Gaussian blur of the given radius from src
// to dst. Both buffers must have the same dimensions; dst may alias
// src. Edges are clamped, so border pixels blur over repeated edge
// content. radius <= 0 copies src to dst unchanged.
func Blur(dst, src *Buf, radius float64) {
	if dst.Width != src.Width || dst.Height != src.Height {
		return
	}
	if radius <= 0 {
		if dst != src {
			dst.CopyFrom(src)
		}
		return
	}

	width, height := src.Width, src.Height
	if width == 0 || height == 0 {
		return
	}

	kernel := CachedGaussianKernel(radius)

	temp := getTempBuffer(width, height)
	defer putTempBuffer(temp)

	blurHorizontal(src, temp, width, height, kernel)
	blurVertical(temp, dst, width, height, kernel)
}

// blurHorizontal applies 1D horizontal convolution.
// Reads uint8 pixels from src, writes float32 to temp.
func blurHorizontal(src *Buf, temp []float32, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		row := y * src.Stride
		for x := 0; x < width; x++ {
			var r, g, b, a float32

			for k := 0; k < kernelSize; k++ {
				kx := x + k - halfKernel

				// Clamp to edge.
				if kx < 0 {
					kx = 0
				} else if kx >= width {
					kx = width - 1
				}

				srcIdx := row + kx*4
				weight := kernel[k]

				r += float32(src.Pix[srcIdx+0]) * weight
				g += float32(src.Pix[srcIdx+1]) * weight
				b += float32(src.Pix[srcIdx+2]) * weight
				a += float32(src.Pix[srcIdx+3]) * weight
			}

			tempIdx := (y*width + x) * 4
			temp[tempIdx+0] = r
			temp[tempIdx+1] = g
			temp[tempIdx+2] = b
			temp[tempIdx+3] = a
		}
	}
}

// blurVertical applies 1D vertical convolution.
// Reads from the float32 temp buffer, writes uint8 pixels to dst.
func blurVertical(temp []float32, dst *Buf, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		row := y * dst.Stride
		for x := 0; x < width; x++ {
			var r, g, b, a float32

			for k := 0; k < kernelSize; k++ {
				ky := y + k - halfKernel

				// Clamp to edge.
				if ky < 0 {
					ky = 0
				} else if ky >= height {
					ky = height - 1
				}

				tempIdx := (ky*width + x) * 4
				weight := kernel[k]

				r += temp[tempIdx+0] * weight
				g += temp[tempIdx+1] * weight
				b += temp[tempIdx+2] * weight
				a += temp[tempIdx+3] * weight
			}

			dstIdx := row + x*4
			dst.Pix[dstIdx+0] = clampUint8(r)
			dst.Pix[dstIdx+1] = clampUint8(g)
			dst.Pix[dstIdx+2] = clampUint8(b)
			dst.Pix[dstIdx+3] = clampUint8(a)
		}
	}
}

// clampUint8 converts a float32 to uint8 with rounding and clamping.
func clampUint8(v float32) uint8 {
	v += 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() any {
		return &floatBuffer{data: make([]float32, 1024*1024*4)} // ~16MB for 1024x1024 RGBA
	},
}

// getTempBuffer retrieves a temporary float buffer from the pool,
// growing it if the requested size exceeds the pooled capacity.
func getTempBuffer(width, height int) []float32 {
	needed := width * height * 4
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if cap(wrapper.data) < needed {
		wrapper.data = make([]float32, needed)
	}
	return wrapper.data[:needed]
}

// putTempBuffer returns a temporary buffer to the pool.
func putTempBuffer(buf []float32) {
	tempBufferPool.Put(&floatBuffer{data: buf})
}
