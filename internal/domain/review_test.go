package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRawReview_EffectiveDate(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	written := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published time.Time
		written   time.Time
		want      time.Time
	}{
		{"written later wins", published, written, written},
		{"published later wins", written, published, written},
		{"equal timestamps", published, published, published},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RawReview{PublishedAt: tt.published, WrittenAt: tt.written}
			assert.Equal(t, tt.want, r.EffectiveDate())
		})
	}
}

func TestReview_CategoryOrOther(t *testing.T) {
	bug := CategoryBug
	empty := ""

	assert.Equal(t, "bug", (&Review{Category: &bug}).CategoryOrOther())
	assert.Equal(t, "other", (&Review{Category: nil}).CategoryOrOther())
	assert.Equal(t, "other", (&Review{Category: &empty}).CategoryOrOther())
}
