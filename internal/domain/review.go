package domain

import (
	"time"
)

// Supported store provider tags.
const (
	StoreRuStore = "rustore"
)

// Review category labels assigned by the categorization step.
const (
	CategoryBug   = "bug"
	CategoryOther = "other"
)

// RawReview is one provider's view of a review, exactly as fetched from the
// store API. It is consumed by the ingestion pipeline and never mutated.
type RawReview struct {
	StoreReviewID      string
	Rating             int
	Text               string
	PublishedAt        time.Time
	WrittenAt          time.Time
	AppVersion         string
	LikesCount         int
	DislikesCount      int
	IsModified         bool
	DeviceManufacturer *string
	DeviceModel        *string
	DeviceFirmware     *string
}

// EffectiveDate returns the canonical date of the review: the later of the
// publish and written timestamps. Some providers backdate edited reviews, so
// neither timestamp alone is reliable.
func (r *RawReview) EffectiveDate() time.Time {
	if r.WrittenAt.After(r.PublishedAt) {
		return r.WrittenAt
	}
	return r.PublishedAt
}

// Review is the durable review record. AppType and Store are supplied by the
// caller of the ingestion request, not by the provider.
type Review struct {
	ID                 string     `json:"id"`
	AppType            string     `json:"app_type"`
	Store              string     `json:"store"`
	Score              int        `json:"score"`
	Text               string     `json:"text"`
	Date               time.Time  `json:"date"`
	AppVersion         string     `json:"app_version"`
	LikesCount         int        `json:"likes_count"`
	DislikesCount      int        `json:"dislikes_count"`
	DeviceManufacturer *string    `json:"device_manufacturer,omitempty"`
	DeviceModel        *string    `json:"device_model,omitempty"`
	DeviceFirmware     *string    `json:"device_firmware,omitempty"`
	IsProcessed        bool       `json:"is_processed"`
	Category           *string    `json:"review_category,omitempty"`
	StoreReviewID      string     `json:"store_review_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CategoryOrOther returns the assigned category, or "other" when the review
// has not been categorized.
func (r *Review) CategoryOrOther() string {
	if r.Category != nil && *r.Category != "" {
		return *r.Category
	}
	return CategoryOther
}

// CategorizationResult is one category label returned by the categorization
// client. Results correspond positionally to the submitted texts.
type CategorizationResult struct {
	Category string
}
