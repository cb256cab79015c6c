package telegram

import (
	"strings"
	"testing"

	"mealcart/internal/planner"

	"github.com/stretchr/testify/assert"
)

func TestParsePreferences(t *testing.T) {
	defaults := planner.Preferences{Adults: 2, Children: 0, Diet: ""}

	tests := []struct {
		text string
		want planner.Preferences
	}{
		{"2 adults 1 kid vegetarian", planner.Preferences{Adults: 2, Children: 1, Diet: "vegetarian"}},
		{"one adult and three children", planner.Preferences{Adults: 1, Children: 3}},
		{"Dinner for 4 people, 2 kids, gluten free please", planner.Preferences{Adults: 2, Children: 2, Diet: "gluten-free"}},
		{"vegan keto", planner.Preferences{Adults: 2, Diet: "vegan, keto"}},
		{"something tasty", planner.Preferences{Adults: 2}},
		{"3 grown-ups", planner.Preferences{Adults: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParsePreferences(tt.text, defaults)
			tt.want.Notes = tt.text
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackRoundTrip(t *testing.T) {
	prefs := planner.Preferences{Adults: 3, Children: 1, Diet: "pescatarian, dairy-free", Notes: "dropped"}
	data := encodeCallback(actionRedo, prefs)
	assert.LessOrEqual(t, len(data), maxCallbackData)

	action, got, ok := decodeCallback(data, planner.Preferences{})
	assert.True(t, ok)
	assert.Equal(t, actionRedo, action)
	assert.Equal(t, planner.Preferences{Adults: 3, Children: 1, Diet: "pescatarian, dairy-free"}, got)

	long := encodeCallback(actionNext, planner.Preferences{Adults: 1, Diet: strings.Repeat("x", 100)})
	assert.Len(t, long, maxCallbackData)

	_, _, ok = decodeCallback("bogus|1|2|x", planner.Preferences{})
	assert.False(t, ok)
	_, _, ok = decodeCallback("redo|a|2|x", planner.Preferences{})
	assert.False(t, ok)
}
