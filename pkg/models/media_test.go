package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		in      string
		want    MediaKind
		wantErr bool
	}{
		{in: "movie", want: KindMovie},
		{in: " Movies ", want: KindMovie},
		{in: "tv", want: KindTV},
		{in: "series", want: KindTV},
		{in: "person", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMediaKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaItemYearAndKey(t *testing.T) {
	item := MediaItem{ID: 27205, Kind: KindMovie, Date: "2010-07-15"}
	assert.Equal(t, 2010, item.Year())
	assert.Equal(t, "movie:27205", item.Key())

	unknown := MediaItem{ID: 1, Kind: KindTV}
	assert.Equal(t, 0, unknown.Year())
}

func TestPageTitlesDropsPeople(t *testing.T) {
	page := Page{Items: []MediaItem{
		{ID: 1, Kind: KindPerson},
		{ID: 2, Kind: KindMovie},
		{ID: 3, Kind: KindTV},
	}}

	titles := page.Titles()
	require.Len(t, titles, 2)
	assert.Equal(t, int64(2), titles[0].ID)
	assert.Equal(t, int64(3), titles[1].ID)
}

func TestTrailerPrefersOfficial(t *testing.T) {
	videos := []Video{
		{Key: "teaser", Site: "YouTube", Type: "Teaser", Official: true},
		{Key: "fan", Site: "YouTube", Type: "Trailer"},
		{Key: "vimeo", Site: "Vimeo", Type: "Trailer", Official: true},
		{Key: "official", Site: "YouTube", Type: "Trailer", Official: true},
	}

	require.NotNil(t, Trailer(videos))
	assert.Equal(t, "official", Trailer(videos).Key)
	assert.Equal(t, "fan", Trailer(videos[:3]).Key)
	assert.Nil(t, Trailer(nil))
}

func TestQuizQuestionValid(t *testing.T) {
	q := QuizQuestion{Question: "Who directed it?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 3}
	assert.True(t, q.Valid())

	q.CorrectAnswer = 4
	assert.False(t, q.Valid())
}
