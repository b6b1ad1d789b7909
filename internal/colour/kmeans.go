package colour

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sort"
)

// KMeansExtractor clusters sampled pixels in RGB space. Each Extract call
// seeds its own generator, so a seed and an image always give the same
// palette.
type KMeansExtractor struct {
	maxIterations int
	// minMovement is the mean centroid shift, in RGB units, below which
	// iteration stops.
	minMovement float64
	maxSamples  int
	seed        uint64
}

// NewKMeansExtractor returns an extractor with the default iteration and
// sampling limits.
func NewKMeansExtractor(seed uint64) *KMeansExtractor {
	return &KMeansExtractor{
		maxIterations: 20,
		minMovement:   2.0,
		maxSamples:    2000,
		seed:          seed,
	}
}

// Extract returns up to count colours ordered by cluster size, each weighted
// by the share of sampled pixels in its cluster. Images with no more than
// count distinct colours return those colours unweighted.
func (e *KMeansExtractor) Extract(img image.Image, count int) (*Palette, error) {
	switch {
	case img == nil:
		return nil, fmt.Errorf("image cannot be nil")
	case count < 1:
		return nil, fmt.Errorf("colour count must be at least 1, got %d", count)
	case count > 256:
		return nil, fmt.Errorf("colour count too large: %d (maximum: 256)", count)
	}

	pixels := samplePixels(img, e.maxSamples)
	if len(pixels) == 0 {
		return nil, fmt.Errorf("no pixels found in image")
	}

	points := make([]vec3, len(pixels))
	var distinct []RGB
	seen := make(map[RGB]struct{})
	for i, px := range pixels {
		rgb := ToRGB(px)
		points[i] = vec3{float64(rgb.R), float64(rgb.G), float64(rgb.B)}
		if _, ok := seen[rgb]; !ok {
			seen[rgb] = struct{}{}
			distinct = append(distinct, rgb)
		}
	}
	if count >= len(distinct) {
		return NewPalette(distinct), nil
	}

	// #nosec G404 -- deterministic clustering, not cryptography
	rng := rand.New(rand.NewPCG(e.seed, e.seed^0x9e3779b97f4a7c15))
	c := clustering{points: points, k: count, rng: rng}
	centroids, shares := c.run(e.maxIterations, e.minMovement)

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return shares[order[i]] > shares[order[j]]
	})

	colours := make([]RGB, count)
	weights := make([]float64, count)
	for i, idx := range order {
		colours[i] = centroids[idx].rgb()
		weights[i] = shares[idx]
	}
	return NewPaletteWithWeights(colours, weights), nil
}

// samplePixels returns every pixel of small images and a regular grid of at
// most maxSamples pixels otherwise.
func samplePixels(img image.Image, maxSamples int) []color.Color {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()

	step := 1
	if total > maxSamples {
		step = max(int(math.Sqrt(float64(total)/float64(maxSamples))), 1)
	}

	pixels := make([]color.Color, 0, min(total, maxSamples))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			if len(pixels) == maxSamples && step > 1 {
				return pixels
			}
			pixels = append(pixels, img.At(x, y))
		}
	}
	return pixels
}

// vec3 is an RGB point with float channels.
type vec3 [3]float64

func (v vec3) dist2(o vec3) float64 {
	var s float64
	for i := range v {
		d := v[i] - o[i]
		s += d * d
	}
	return s
}

func (v vec3) rgb() RGB {
	return RGB{R: uint8(math.Round(v[0])), G: uint8(math.Round(v[1])), B: uint8(math.Round(v[2]))}
}

// clustering holds the state of one Lloyd's iteration run.
type clustering struct {
	points []vec3
	k      int
	rng    *rand.Rand
}

// run seeds k centroids with k-means++ and refines them until fewer than 1%
// of points change cluster, the mean centroid shift drops below minMovement,
// or maxIterations passes. It returns the centroids and the fraction of
// points assigned to each.
func (c *clustering) run(maxIterations int, minMovement float64) ([]vec3, []float64) {
	centroids := c.seed()
	assign := make([]int, len(c.points))

	for range maxIterations {
		changed := 0
		for i, p := range c.points {
			if n := nearest(p, centroids); n != assign[i] {
				assign[i] = n
				changed++
			}
		}
		if float64(changed) < 0.01*float64(len(c.points)) {
			break
		}

		next := c.means(assign)
		var moved float64
		for i := range centroids {
			moved += math.Sqrt(centroids[i].dist2(next[i]))
		}
		centroids = next
		if moved/float64(c.k) < minMovement {
			break
		}
	}

	shares := make([]float64, c.k)
	for _, a := range assign {
		shares[a]++
	}
	for i := range shares {
		shares[i] /= float64(len(assign))
	}
	return centroids, shares
}

// seed picks initial centroids with k-means++: each new centroid is drawn
// with probability proportional to its squared distance from the nearest
// centroid already chosen.
func (c *clustering) seed() []vec3 {
	centroids := make([]vec3, 0, c.k)
	centroids = append(centroids, c.points[c.rng.IntN(len(c.points))])

	d2 := make([]float64, len(c.points))
	for len(centroids) < c.k {
		var total float64
		for i, p := range c.points {
			d2[i] = p.dist2(centroids[nearest(p, centroids)])
			total += d2[i]
		}

		// Every point sits on a centroid; nudge a copy of the last one.
		if total == 0 {
			last := centroids[len(centroids)-1]
			centroids = append(centroids, vec3{last[0] + 0.1, last[1] + 0.1, last[2] + 0.1})
			continue
		}

		target := c.rng.Float64() * total
		var acc float64
		for i, d := range d2 {
			acc += d
			if acc >= target {
				centroids = append(centroids, c.points[i])
				break
			}
		}
	}
	return centroids
}

// means returns the centroid of each cluster. Empty clusters restart at a
// random point.
func (c *clustering) means(assign []int) []vec3 {
	sums := make([]vec3, c.k)
	counts := make([]int, c.k)
	for i, p := range c.points {
		a := assign[i]
		for ch := range p {
			sums[a][ch] += p[ch]
		}
		counts[a]++
	}

	for i := range sums {
		if counts[i] == 0 {
			sums[i] = c.points[c.rng.IntN(len(c.points))]
			continue
		}
		for ch := range sums[i] {
			sums[i][ch] /= float64(counts[i])
		}
	}
	return sums
}

func nearest(p vec3, centroids []vec3) int {
	best, bestD := 0, math.Inf(1)
	for i, c := range centroids {
		if d := p.dist2(c); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
