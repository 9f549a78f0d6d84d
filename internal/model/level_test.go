package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOrder(t *testing.T) {
	levels := Levels()
	require.Len(t, levels, 6)

	assert.Equal(t, LevelPreschool, levels[0])
	assert.Equal(t, LevelPhD, levels[5])

	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1].Rank(), levels[i].Rank())
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("college")
	require.NoError(t, err)
	assert.Equal(t, LevelCollege, l)

	_, err = ParseLevel("kindergarten")
	assert.Error(t, err)

	_, err = ParseLevel("")
	assert.Error(t, err)
}

func TestLevelInfo(t *testing.T) {
	info := LevelElementary.Info()
	assert.Equal(t, LevelElementary, info.Level)
	assert.Equal(t, "Elementary School", info.Label)
	assert.NotEmpty(t, info.AgeRange)
	assert.NotEmpty(t, info.Color)
}

func TestRankUnknownLevel(t *testing.T) {
	assert.Equal(t, -1, EducationLevel("bogus").Rank())
	assert.False(t, EducationLevel("bogus").Valid())
}
