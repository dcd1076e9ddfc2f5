package utils

import "strings"

// CategoryLabels maps ledger entry category keys to their display labels
// (the label operates in French).
var CategoryLabels = map[string]string{
	"mastering":    "Mastering",
	"mixing":       "Mixage",
	"recording":    "Enregistrement",
	"photos":       "Photos",
	"video":        "Video",
	"advertising":  "Publicite",
	"groover":      "Groover",
	"submithub":    "SubmitHub",
	"google_ads":   "Google Ads",
	"instagram":    "Instagram",
	"tiktok":       "TikTok",
	"facebook":     "Facebook",
	"spotify_ads":  "Spotify Ads",
	"pr":           "PR / Relations presse",
	"distribution": "Distribution",
	"artwork":      "Artwork",
	"cd":           "CD",
	"vinyl":        "Vinyles",
	"goodies":      "Goodies / Merch",
	"other":        "Autre",
}

// PlatformLabels maps normalized source platform keys to display names.
var PlatformLabels = map[string]string{
	"spotify":       "Spotify",
	"apple_music":   "Apple Music",
	"deezer":        "Deezer",
	"youtube_music": "YouTube Music",
	"amazon_music":  "Amazon Music",
	"tidal":         "Tidal",
	"bandcamp":      "Bandcamp",
	"soundcloud":    "SoundCloud",
	"believe":       "Believe",
	"tunecore":      "TuneCore",
}

// CategoryLabel returns the display label for a ledger category key, falling
// back to the key itself.
func CategoryLabel(category string) string {
	if label, ok := CategoryLabels[category]; ok {
		return label
	}
	return category
}

// PlatformKey normalizes a reported source platform to its lookup key.
func PlatformKey(source string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(source)), " ", "_")
}

// PlatformLabel returns the display name for a source platform, falling back
// to the reported name.
func PlatformLabel(source string) string {
	if label, ok := PlatformLabels[PlatformKey(source)]; ok {
		return label
	}
	return source
}
