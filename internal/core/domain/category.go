package domain

import "strings"

// Category classifies documents within the knowledge base. The category
// of a document is taken from the first path segment under its source
// root when that segment names a known category, falling back to the
// Category metadata header, then to CategoryPersonalInfo.
type Category string

const (
	// CategoryFAQs holds question and answer documents.
	CategoryFAQs Category = "faqs"

	// CategoryInstagramContent holds social media post archives.
	CategoryInstagramContent Category = "instagram_content"

	// CategoryTravelGuides holds destination and itinerary guides.
	CategoryTravelGuides Category = "travel_guides"

	// CategoryPersonalInfo holds biographical and preference notes.
	CategoryPersonalInfo Category = "personal_info"

	// CategoryVideoTranscripts holds transcribed video content.
	CategoryVideoTranscripts Category = "video_transcripts"
)

// DefaultCategory is used when neither the path nor the metadata names
// a known category.
const DefaultCategory = CategoryPersonalInfo

// IsValid checks if the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFAQs, CategoryInstagramContent, CategoryTravelGuides,
		CategoryPersonalInfo, CategoryVideoTranscripts:
		return true
	}
	return false
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Description returns a human-readable description.
func (c Category) Description() string {
	switch c {
	case CategoryFAQs:
		return "Frequently asked questions"
	case CategoryInstagramContent:
		return "Instagram posts and captions"
	case CategoryTravelGuides:
		return "Travel guides and itineraries"
	case CategoryPersonalInfo:
		return "Personal information and preferences"
	case CategoryVideoTranscripts:
		return "Video transcripts"
	default:
		return unknownDescription
	}
}

// AllCategories returns all known categories.
func AllCategories() []Category {
	return []Category{
		CategoryFAQs,
		CategoryInstagramContent,
		CategoryTravelGuides,
		CategoryPersonalInfo,
		CategoryVideoTranscripts,
	}
}

// ParseCategory normalises a free-form label ("Travel Guides",
// "travel-guides") into a known category.
func ParseCategory(s string) (Category, bool) {
	normalised := strings.ToLower(strings.TrimSpace(s))
	normalised = strings.ReplaceAll(normalised, " ", "_")
	normalised = strings.ReplaceAll(normalised, "-", "_")

	c := Category(normalised)
	if c.IsValid() {
		return c, true
	}
	return "", false
}

// CategoryForPath derives the category from the first segment of a
// source-relative path.
func CategoryForPath(path string) (Category, bool) {
	path = strings.TrimLeft(path, "/")
	segment, _, _ := strings.Cut(path, "/")
	return ParseCategory(segment)
}

// ResolveCategory resolves a document category from its source-relative
// path, falling back to a metadata label, then to DefaultCategory.
func ResolveCategory(path, label string) Category {
	if c, ok := CategoryForPath(path); ok {
		return c
	}
	if c, ok := ParseCategory(label); ok {
		return c
	}
	return DefaultCategory
}
