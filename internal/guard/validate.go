package guard

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/logo-gallery/internal/config"
	"github.com/ironsheep/logo-gallery/internal/features"
)

// Limits bounds the size and metadata of an upload.
type Limits struct {
	MaxBytes             int64
	MaxPixels            int64
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxTags              int
	MaxTagLength         int
}

// LimitsFromConfig copies the upload section of the configuration.
func LimitsFromConfig(cfg config.UploadConfig) Limits {
	return Limits{
		MaxBytes:             cfg.MaxBytes,
		MaxPixels:            cfg.MaxPixels,
		MaxTitleLength:       cfg.MaxTitleLength,
		MaxDescriptionLength: cfg.MaxDescriptionLength,
		MaxTags:              cfg.MaxTags,
		MaxTagLength:         cfg.MaxTagLength,
	}
}

// withDefaults fills every zero field of l from def.
func (l Limits) withDefaults(def Limits) Limits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = def.MaxBytes
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = def.MaxPixels
	}
	if l.MaxTitleLength <= 0 {
		l.MaxTitleLength = def.MaxTitleLength
	}
	if l.MaxDescriptionLength <= 0 {
		l.MaxDescriptionLength = def.MaxDescriptionLength
	}
	if l.MaxTags <= 0 {
		l.MaxTags = def.MaxTags
	}
	if l.MaxTagLength <= 0 {
		l.MaxTagLength = def.MaxTagLength
	}
	return l
}

var mimeTypes = map[string]string{
	features.FormatPNG:  "image/png",
	features.FormatJPEG: "image/jpeg",
	features.FormatSVG:  "image/svg+xml",
}

// MimeType maps a sniffed format to its media type.
func MimeType(format string) string {
	return mimeTypes[format]
}

type metadata struct {
	title       string
	description string
	tags        []string
}

func (l Limits) checkMetadata(up Upload) (metadata, error) {
	if strings.TrimSpace(up.OwnerID) == "" {
		return metadata{}, invalid(ReasonInvalidMetadata, "owner is required")
	}

	title := strings.TrimSpace(up.Title)
	if title == "" {
		return metadata{}, invalid(ReasonInvalidMetadata, "title is required")
	}
	if utf8.RuneCountInString(title) > l.MaxTitleLength {
		return metadata{}, invalid(ReasonInvalidMetadata, "title must be at most %d characters", l.MaxTitleLength)
	}

	description := strings.TrimSpace(up.Description)
	if utf8.RuneCountInString(description) > l.MaxDescriptionLength {
		return metadata{}, invalid(ReasonInvalidMetadata, "description must be at most %d characters", l.MaxDescriptionLength)
	}

	var tags []string
	seen := make(map[string]bool)
	for _, tag := range up.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		if utf8.RuneCountInString(tag) > l.MaxTagLength {
			return metadata{}, invalid(ReasonInvalidMetadata, "tag %q must be at most %d characters", tag, l.MaxTagLength)
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	if len(tags) > l.MaxTags {
		return metadata{}, invalid(ReasonInvalidMetadata, "at most %d tags are allowed", l.MaxTags)
	}

	return metadata{title: title, description: description, tags: tags}, nil
}

func (l Limits) checkSize(data []byte) error {
	if len(data) == 0 {
		return invalid(ReasonInvalidSize, "file is empty")
	}
	if int64(len(data)) > l.MaxBytes {
		return invalid(ReasonInvalidSize, "file is %d bytes; the limit is %d", len(data), l.MaxBytes)
	}
	return nil
}

func checkType(data []byte) (string, error) {
	format := features.SniffFormat(data)
	if format == "" {
		return "", invalid(ReasonInvalidType, "only PNG, JPEG and SVG images are accepted")
	}
	return format, nil
}

// parseDeclared reads an optional declared dimension; 0 means not declared.
func parseDeclared(name, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, invalid(ReasonInvalidDimensions, "%s must be a positive integer", name)
	}
	return n, nil
}

func checkDeclared(declaredW, declaredH int, f *features.ImageFeatures) error {
	if declaredW != 0 && declaredW != f.Width {
		return invalid(ReasonInvalidDimensions, "declared width %d does not match image width %d", declaredW, f.Width)
	}
	if declaredH != 0 && declaredH != f.Height {
		return invalid(ReasonInvalidDimensions, "declared height %d does not match image height %d", declaredH, f.Height)
	}
	return nil
}
