package imaging

import (
	"image"
	"image/color"
	"math"
)

// toGray converts an image to an 8-bit grayscale copy anchored at the origin.
// The source is never modified.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			from := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+w], src.Pix[from:from+w])
		}
		return gray
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			gray.Pix[y*gray.Stride+x] = c.Y
		}
	}
	return gray
}

// reflect101 maps an out-of-range index back into [0, n) mirroring around the
// edge pixel without repeating it (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// replicate clamps an index to the nearest edge pixel (aaaa|abcdefgh|hhhh).
func replicate(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// laplacianVariance returns the population variance of the 3x3 Laplacian
// response [0 1 0; 1 -4 1; 0 1 0] computed with reflect-101 borders.
func laplacianVariance(g *image.Gray) float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	at := func(x, y int) float64 {
		return float64(g.Pix[reflect101(y, h)*g.Stride+reflect101(x, w)])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y) - 4*at(x, y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

// medianBlur3 applies a 3x3 median filter with replicated borders.
func medianBlur3(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				row := replicate(y+dy, h) * src.Stride
				for dx := -1; dx <= 1; dx++ {
					window[k] = src.Pix[row+replicate(x+dx, w)]
					k++
				}
			}
			// insertion sort; nine elements
			for i := 1; i < len(window); i++ {
				v := window[i]
				j := i - 1
				for j >= 0 && window[j] > v {
					window[j+1] = window[j]
					j--
				}
				window[j+1] = v
			}
			dst.Pix[y*dst.Stride+x] = window[4]
		}
	}
	return dst
}

// clahe performs contrast limited adaptive histogram equalization over a
// tilesX x tilesY grid, blending neighbouring tile mappings bilinearly.
// Images that do not divide evenly are padded with reflected pixels so every
// tile covers the same area.
func clahe(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			rect := image.Rect(tx*tileW, ty*tileH, (tx+1)*tileW, (ty+1)*tileH)
			luts[ty*tilesX+tx] = tileLUT(src, rect, clipLimit)
		}
	}

	for y := 0; y < h; y++ {
		tyf := float64(y)/float64(tileH) - 0.5
		ty1 := int(math.Floor(tyf))
		ty2 := ty1 + 1
		ya := tyf - float64(ty1)
		ty1 = max(ty1, 0)
		ty2 = min(ty2, tilesY-1)

		for x := 0; x < w; x++ {
			txf := float64(x)/float64(tileW) - 0.5
			tx1 := int(math.Floor(txf))
			tx2 := tx1 + 1
			xa := txf - float64(tx1)
			tx1 = max(tx1, 0)
			tx2 = min(tx2, tilesX-1)

			v := src.Pix[y*src.Stride+x]
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bottom := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			dst.Pix[y*dst.Stride+x] = saturate(top*(1-ya) + bottom*ya)
		}
	}
	return dst
}

// tileLUT builds the clipped, redistributed equalization mapping for one tile.
// rect may extend past the image; those pixels are read reflect-101.
func tileLUT(src *image.Gray, rect image.Rectangle, clipLimit float64) [256]uint8 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	var hist [256]int
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := reflect101(y, h) * src.Stride
		for x := rect.Min.X; x < rect.Max.X; x++ {
			hist[src.Pix[row+reflect101(x, w)]]++
		}
	}
	area := rect.Dx() * rect.Dy()

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / 256)
		if limit < 1 {
			limit = 1
		}
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		batch := excess / 256
		residual := excess - batch*256
		for i := range hist {
			hist[i] += batch
		}
		if residual > 0 {
			step := max(256/residual, 1)
			for i := 0; i < 256 && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [256]uint8
	scale := 255.0 / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = saturate(float64(sum) * scale)
	}
	return lut
}

// gaussianKernel returns a normalized 1-D Gaussian kernel of the given odd size.
// A non-positive sigma is derived from the size the usual way.
func gaussianKernel(size int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// gaussianBlur applies a separable Gaussian blur with replicated borders.
func gaussianBlur(src *image.Gray, size int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(size, 0)
	half := size / 2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				acc += kv * float64(row[replicate(x+i-half, w)])
			}
			tmp[y*w+x] = acc
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				acc += kv * tmp[replicate(y+i-half, h)*w+x]
			}
			dst.Pix[y*dst.Stride+x] = saturate(acc)
		}
	}
	return dst
}

// adaptiveThreshold binarizes src against a Gaussian-weighted local mean:
// a pixel becomes 255 when it exceeds mean-offset, 0 otherwise.
func adaptiveThreshold(src *image.Gray, blockSize int, offset int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	mean := gaussianBlur(src, blockSize)
	dst := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int(src.Pix[y*src.Stride+x])
			m := int(mean.Pix[y*mean.Stride+x])
			if v-m > -offset {
				dst.Pix[y*dst.Stride+x] = 255
			} else {
				dst.Pix[y*dst.Stride+x] = 0
			}
		}
	}
	return dst
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
