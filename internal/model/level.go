package model

import "fmt"

// EducationLevel is one of six ordered complexity tiers applied to an
// explanation.
type EducationLevel string

const (
	LevelPreschool  EducationLevel = "preschool"
	LevelElementary EducationLevel = "elementary"
	LevelMiddle     EducationLevel = "middle"
	LevelHigh       EducationLevel = "high"
	LevelCollege    EducationLevel = "college"
	LevelPhD        EducationLevel = "phd"
)

// DefaultLevel is applied to newly created sessions.
const DefaultLevel = LevelElementary

// levelOrder fixes the total order of levels, simplest first.
var levelOrder = []EducationLevel{
	LevelPreschool,
	LevelElementary,
	LevelMiddle,
	LevelHigh,
	LevelCollege,
	LevelPhD,
}

// LevelInfo carries the presentation attributes of a level.
type LevelInfo struct {
	Level    EducationLevel `json:"level"`
	Label    string         `json:"label"`
	AgeRange string         `json:"age_range"`
	Color    string         `json:"color"`
}

var levelInfo = map[EducationLevel]LevelInfo{
	LevelPreschool:  {LevelPreschool, "Preschool", "Ages 3-5", "pink"},
	LevelElementary: {LevelElementary, "Elementary School", "Ages 6-10", "green"},
	LevelMiddle:     {LevelMiddle, "Middle School", "Ages 11-13", "yellow"},
	LevelHigh:       {LevelHigh, "High School", "Ages 14-18", "orange"},
	LevelCollege:    {LevelCollege, "College", "Ages 18+", "blue"},
	LevelPhD:        {LevelPhD, "PhD", "Expert", "purple"},
}

// Levels returns all levels in ascending order of complexity.
func Levels() []EducationLevel {
	out := make([]EducationLevel, len(levelOrder))
	copy(out, levelOrder)
	return out
}

// ParseLevel validates a level name.
func ParseLevel(s string) (EducationLevel, error) {
	l := EducationLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown education level %q", s)
	}
	return l, nil
}

// Valid reports whether the level is one of the six known tiers.
func (l EducationLevel) Valid() bool {
	_, ok := levelInfo[l]
	return ok
}

// Rank returns the position of the level in the total order, or -1 if the
// level is unknown.
func (l EducationLevel) Rank() int {
	for i, v := range levelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

// Info returns the presentation attributes for the level.
func (l EducationLevel) Info() LevelInfo {
	return levelInfo[l]
}
