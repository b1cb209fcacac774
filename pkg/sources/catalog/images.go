package catalog

import "strings"

// Media URLs are built deterministically from an opaque image identifier by
// substituting a size token into the CDN path template; no network call is
// involved.
const (
	cdnTemplate     = "https://images.emberworkscdn.net/media/upload/t_{size}/{id}.jpg"
	DefaultCoverURL = "https://images.emberworkscdn.net/media/upload/t_cover_big/placeholder.jpg"

	SizeCoverBig   = "cover_big"
	SizeCoverSmall = "cover_small"
	SizeScreenshot = "screenshot_big"
)

func CoverURL(imageID, size string) string {
	if imageID == "" {
		return DefaultCoverURL
	}
	if size == "" {
		size = SizeCoverBig
	}
	url := strings.Replace(cdnTemplate, "{size}", size, 1)
	return strings.Replace(url, "{id}", imageID, 1)
}
