package models

// AssetVariant distinguishes artwork aspect ratios.
type AssetVariant string

const (
	VariantPortrait  AssetVariant = "portrait"
	VariantLandscape AssetVariant = "landscape"
	VariantSquare    AssetVariant = "square"
	VariantBanner    AssetVariant = "banner"
)

// ValidAssetVariant reports whether raw names a known variant.
func ValidAssetVariant(raw string) bool {
	switch AssetVariant(raw) {
	case VariantPortrait, VariantLandscape, VariantSquare, VariantBanner:
		return true
	}
	return false
}

// LessonAssetKind enumerates asset kinds attachable to lessons.
type LessonAssetKind string

const (
	LessonAssetThumbnail LessonAssetKind = "thumbnail"
	LessonAssetSubtitle  LessonAssetKind = "subtitle"
)

// ValidLessonAssetKind reports whether raw names a known lesson asset kind.
func ValidLessonAssetKind(raw string) bool {
	switch LessonAssetKind(raw) {
	case LessonAssetThumbnail, LessonAssetSubtitle:
		return true
	}
	return false
}

// ProgramAssetKind enumerates asset kinds attachable to programs.
type ProgramAssetKind string

const ProgramAssetPoster ProgramAssetKind = "poster"

// LessonAsset is keyed by (lesson, language, variant, kind); writes upsert the URL.
type LessonAsset struct {
	ID       string          `db:"id" json:"id"`
	LessonID string          `db:"lesson_id" json:"lesson_id"`
	Language string          `db:"language" json:"language"`
	Variant  AssetVariant    `db:"variant" json:"variant"`
	Kind     LessonAssetKind `db:"asset_type" json:"asset_type"`
	URL      string          `db:"url" json:"url"`
}

// ProgramAsset is keyed by (program, language, variant, kind); writes upsert the URL.
type ProgramAsset struct {
	ID        string           `db:"id" json:"id"`
	ProgramID string           `db:"program_id" json:"program_id"`
	Language  string           `db:"language" json:"language"`
	Variant   AssetVariant     `db:"variant" json:"variant"`
	Kind      ProgramAssetKind `db:"asset_type" json:"asset_type"`
	URL       string           `db:"url" json:"url"`
}

// AssetURLMap groups asset URLs by language then variant for API payloads.
type AssetURLMap map[string]map[string]string

// Add records one asset URL, allocating nested maps as needed.
func (m AssetURLMap) Add(language, variant, url string) {
	byVariant, ok := m[language]
	if !ok {
		byVariant = make(map[string]string)
		m[language] = byVariant
	}
	byVariant[variant] = url
}
