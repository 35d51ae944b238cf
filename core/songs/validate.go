package songs

import (
	"strings"
	"unicode/utf8"
)

const maxFieldLength = 100

// fieldLength counts characters, not bytes, so multibyte names get the same
// 100-character allowance the client enforces.
func fieldLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// extensionForMimeType maps the MIME types accepted for cover uploads onto
// file extensions. Anything outside this map is rejected.
var extensionForMimeType = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
}

func validateCreateInput(name, artist, imageRef string) []string {
	var errs []string

	if strings.TrimSpace(name) == "" {
		errs = append(errs, "Name is required.")
	} else if fieldLength(name) > maxFieldLength {
		errs = append(errs, "Name must be at most 100 characters.")
	}

	if strings.TrimSpace(artist) == "" {
		errs = append(errs, "Artist is required.")
	} else if fieldLength(artist) > maxFieldLength {
		errs = append(errs, "Artist must be at most 100 characters.")
	}

	if strings.TrimSpace(imageRef) == "" {
		errs = append(errs, "Album cover image is required.")
	}

	return errs
}

func validateUpdateInput(in UpdateInput) []string {
	var errs []string

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			errs = append(errs, "Name is required.")
		} else if fieldLength(*in.Name) > maxFieldLength {
			errs = append(errs, "Name must be at most 100 characters.")
		}
	}

	if in.Artist != nil {
		if strings.TrimSpace(*in.Artist) == "" {
			errs = append(errs, "Artist is required.")
		} else if fieldLength(*in.Artist) > maxFieldLength {
			errs = append(errs, "Artist must be at most 100 characters.")
		}
	}

	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) == "" {
		errs = append(errs, "Image URL must not be empty.")
	}

	return errs
}
