package pixel

import (
	"context"
	"image"
	"math"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// frame is a downsampled working copy of the image: a skin mask plus the
// luma plane, which is all the metric passes need.
type frame struct {
	w, h int
	skin []bool
	luma []float64

	colorStdDev float64
}

// sampleFrame downsamples the image so its longer side is at most maxDim
// samples, classifying skin and collecting color statistics in the same pass.
func sampleFrame(ctx context.Context, img image.Image, maxDim int) (*frame, error) {
	bounds := img.Bounds()
	bw, bh := bounds.Dx(), bounds.Dy()
	if bw == 0 || bh == 0 {
		return &frame{}, nil
	}

	longSide := bw
	if bh > longSide {
		longSide = bh
	}
	step := (longSide + maxDim - 1) / maxDim
	if step < 1 {
		step = 1
	}

	w := (bw + step - 1) / step
	h := (bh + step - 1) / step

	f := &frame{
		w:    w,
		h:    h,
		skin: make([]bool, w*h),
		luma: make([]float64, w*h),
	}

	var sum, sumSq [3]float64
	n := 0

	for sy := 0; sy < h; sy++ {
		if sy%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		py := bounds.Min.Y + sy*step
		for sx := 0; sx < w; sx++ {
			px := bounds.Min.X + sx*step
			r16, g16, b16, _ := img.At(px, py).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			b := float64(b16 >> 8)

			i := sy*w + sx
			f.skin[i] = isSkin(r, g, b)
			f.luma[i] = 0.299*r + 0.587*g + 0.114*b

			sum[0] += r
			sum[1] += g
			sum[2] += b
			sumSq[0] += r * r
			sumSq[1] += g * g
			sumSq[2] += b * b
			n++
		}
	}

	if n > 0 {
		var total float64
		for c := 0; c < 3; c++ {
			mean := sum[c] / float64(n)
			variance := sumSq[c]/float64(n) - mean*mean
			if variance < 0 {
				variance = 0
			}
			total += math.Sqrt(variance)
		}
		f.colorStdDev = total / 3 / 255
	}

	return f, nil
}

// isSkin classifies one pixel using an RGB rule combined with a YCbCr band
// check. Either rule qualifying counts the pixel as skin; the union tracks
// real skin tones better than either rule alone.
func isSkin(r, g, b float64) bool {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	if r > 95 && g > 40 && b > 20 && r > g && r > b && r-g > 15 && maxC-minC > 15 {
		return true
	}

	cb := 128 - 0.168736*r - 0.331264*g + 0.5*b
	cr := 128 + 0.5*r - 0.418688*g - 0.081312*b
	return cb >= 77 && cb <= 127 && cr >= 133 && cr <= 173
}

func (f *frame) skinCount() int {
	count := 0
	for _, s := range f.skin {
		if s {
			count++
		}
	}
	return count
}

// gradientField computes per-sample gradient magnitude over luma,
// normalized to 0..1.
func (f *frame) gradientField() []float64 {
	grad := make([]float64, f.w*f.h)
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			i := y*f.w + x
			var dx, dy float64
			if x+1 < f.w {
				dx = f.luma[i+1] - f.luma[i]
			}
			if y+1 < f.h {
				dy = f.luma[i+f.w] - f.luma[i]
			}
			grad[i] = (math.Abs(dx) + math.Abs(dy)) / (2 * 255)
		}
	}
	return grad
}

// meanGradientNearSkin averages gradient magnitude over samples that are skin
// or 4-adjacent to skin. High detail near skin suggests clothing texture
// rather than bare skin.
func (f *frame) meanGradientNearSkin(grad []float64) float64 {
	var sum float64
	n := 0
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			i := y*f.w + x
			if !f.skin[i] && !f.hasSkinNeighbor(x, y) {
				continue
			}
			sum += grad[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (f *frame) hasSkinNeighbor(x, y int) bool {
	if x > 0 && f.skin[y*f.w+x-1] {
		return true
	}
	if x+1 < f.w && f.skin[y*f.w+x+1] {
		return true
	}
	if y > 0 && f.skin[(y-1)*f.w+x] {
		return true
	}
	if y+1 < f.h && f.skin[(y+1)*f.w+x] {
		return true
	}
	return false
}

// dominantSkinRatio weighs the largest 4-connected skin region against the
// total skin mass.
func (f *frame) dominantSkinRatio() float64 {
	total := f.skinCount()
	if total == 0 {
		return 0
	}

	visited := make([]bool, f.w*f.h)
	queue := make([]int, 0, total)
	largest := 0

	for start, s := range f.skin {
		if !s || visited[start] {
			continue
		}

		size := 0
		visited[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			size++

			x, y := i%f.w, i/f.w
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= f.w || ny < 0 || ny >= f.h {
					continue
				}
				ni := ny*f.w + nx
				if visited[ni] || !f.skin[ni] {
					continue
				}
				visited[ni] = true
				queue = append(queue, ni)
			}
		}

		if size > largest {
			largest = size
		}
	}

	return float64(largest) / float64(total)
}

// poseMetrics estimates torso presence and limb dominance from the spatial
// distribution of skin: torso confidence tracks skin density inside the
// central box, limb dominance tracks density in the outer vertical bands when
// the center is empty.
func (f *frame) poseMetrics() models.PoseMetrics {
	if f.w == 0 || f.h == 0 {
		return models.PoseMetrics{}
	}

	cx0, cx1 := f.w/4, f.w*3/4
	cy0, cy1 := f.h/4, f.h*3/4

	var centralSkin, centralTotal int
	var bandSkin, bandTotal int

	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			i := y*f.w + x
			inCenter := x >= cx0 && x < cx1 && y >= cy0 && y < cy1
			inBand := x < cx0 || x >= cx1

			if inCenter {
				centralTotal++
				if f.skin[i] {
					centralSkin++
				}
			}
			if inBand {
				bandTotal++
				if f.skin[i] {
					bandSkin++
				}
			}
		}
	}

	var centralDensity, bandDensity float64
	if centralTotal > 0 {
		centralDensity = float64(centralSkin) / float64(centralTotal)
	}
	if bandTotal > 0 {
		bandDensity = float64(bandSkin) / float64(bandTotal)
	}

	return models.PoseMetrics{
		TorsoPresenceConfidence: centralDensity,
		LimbDominanceConfidence: bandDensity * (1 - centralDensity),
	}
}
