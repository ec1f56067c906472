package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benw5483/rectifierr/internal/domain"
)

func TestBestTitleMatch(t *testing.T) {
	svc := &MediaService{}
	items := []domain.MediaFile{
		{Title: "The Iron Giant", MediaType: domain.MediaTypeMovie},
		{Title: "Pilot", SeriesTitle: "Breaking Ground", MediaType: domain.MediaTypeEpisode},
		{Title: "Iron Chef Special", MediaType: domain.MediaTypeMovie},
	}

	assert.Equal(t, 0, svc.BestTitleMatch("iron giant", items))
	assert.Equal(t, 1, svc.BestTitleMatch("breaking pilot", items))
	assert.Equal(t, -1, svc.BestTitleMatch("zzzzz", items))
	assert.Equal(t, -1, svc.BestTitleMatch("", items))
	assert.Equal(t, -1, svc.BestTitleMatch("iron", nil))
}
