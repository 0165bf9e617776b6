// Package synthetic produces plausible, deterministic image entries for pages
// whose content could not be retrieved, and for demo scans.
package synthetic

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/pkg/utils"
)

// SyntheticMarker is appended to generated alt text in fallback mode.
const SyntheticMarker = "(CORS blocked real data)"

const (
	minImages = 3
	maxImages = 12
)

// Mode selects why entries are generated.
type Mode int

const (
	// ModeDemo generates data for a demo scan; alt text carries no marker.
	ModeDemo Mode = iota
	// ModeFallback generates data for a page whose retrieval failed.
	ModeFallback
)

func (m Mode) String() string {
	if m == ModeFallback {
		return "fallback"
	}
	return "demo"
}

var (
	imageTypes = []string{
		"Product photo", "Banner", "Hero image", "Icon", "Logo",
		"Infographic", "Gallery photo", "Profile picture", "Background image",
	}
	categories = []string{
		"skincare", "cosmetics", "treatment", "moisturizer",
		"serum", "sunscreen", "cleanser", "toner",
	}
	directories = []string{
		"images", "assets", "media", "uploads", "content",
		"products", "banners", "gallery",
	}
	extensions = []string{"jpg", "jpg", "png", "webp"}
)

// Generate returns between 3 and 12 entries for pageURL. The output depends
// only on pageURL, pageID and mode.
func Generate(pageURL, pageID string, mode Mode) []entity.ImageEntry {
	r := newRand(pageURL)
	host := utils.Hostname(pageURL)
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		base = &url.URL{Scheme: "https", Host: host, Path: "/"}
	}

	count := minImages + r.intn(maxImages-minImages+1)
	images := make([]entity.ImageEntry, 0, count)
	for i := 0; i < count; i++ {
		category := categories[r.intn(len(categories))]
		n := 1 + r.intn(99)

		var alt entity.AltText
		switch bucket := r.intn(10); {
		case bucket < 6:
			text := fmt.Sprintf("%s of %s %d for %s", imageTypes[r.intn(len(imageTypes))], category, n, host)
			if mode == ModeFallback {
				text += " " + SyntheticMarker
			}
			alt = entity.AltOf(text)
		case bucket < 9:
			alt = entity.MissingAlt()
		default:
			alt = entity.AltOf("")
		}

		dir := directories[r.intn(len(directories))]
		file := fmt.Sprintf("%s/%s-%d-%d.%s", dir, category, n, i+1, extensions[r.intn(len(extensions))])
		src, err := utils.ToAbsoluteURL(base, file)
		if err != nil {
			src = file
		}

		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageID+"#synthetic#"+strconv.Itoa(i))).String()
		entry := entity.NewImageEntry(id, pageURL, pageID, src, alt)
		entry.Synthetic = true
		images = append(images, entry)
	}
	return images
}

// rand is a 32-bit rolling hash of the seed string advanced by a linear
// congruential step on every draw.
type rand struct {
	state uint32
}

func newRand(seed string) *rand {
	var h uint32
	for i := 0; i < len(seed); i++ {
		h = h*31 + uint32(seed[i])
	}
	return &rand{state: h}
}

func (r *rand) next() uint32 {
	r.state = r.state*1664525 + 1013904223
	return r.state
}

// intn returns a value in [0, n). The high bits are used because the low
// bits of an LCG have short periods.
func (r *rand) intn(n int) int {
	return int((r.next() >> 16) % uint32(n))
}
