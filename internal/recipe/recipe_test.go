package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientNormalize(t *testing.T) {
	t.Run("FillsDefaults", func(t *testing.T) {
		got := Ingredient{Name: "  onion ", Amount: -2, Unit: " cup"}.Normalize()

		assert.Equal(t, "onion", got.Name)
		assert.Equal(t, 0.0, got.Amount)
		assert.Equal(t, "cup", got.Unit)
		assert.Equal(t, DefaultAisle, got.Aisle)
		assert.Equal(t, "cup onion", got.Original)
	})

	t.Run("KeepsProvidedValues", func(t *testing.T) {
		in := Ingredient{Name: "garlic", Original: "3 cloves garlic", Amount: 3, Unit: "clove", Aisle: "Produce"}
		assert.Equal(t, in, in.Normalize())
	})

	t.Run("RebuildsOriginal", func(t *testing.T) {
		got := Ingredient{Name: "milk", Amount: 1.5, Unit: "cups"}.Normalize()
		assert.Equal(t, "1.5 cups milk", got.Original)
	})
}

func TestRecipeNormalize(t *testing.T) {
	r := Recipe{
		Title: " Oatmeal ",
		Ingredients: []Ingredient{
			{Name: "oats", Amount: 1, Unit: "cup"},
			{Name: "   ", Amount: 2},
			{Original: " a pinch of salt ", Aisle: "Spices"},
		},
	}

	got := r.Normalize()
	assert.Equal(t, "Oatmeal", got.Title)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Other", got.Ingredients[0].Aisle)
	assert.Equal(t, "", got.Ingredients[1].Name)
	assert.Equal(t, "a pinch of salt", got.Ingredients[1].Original)
	assert.Len(t, r.Ingredients, 3, "original recipe must not be modified")

	assert.True(t, Recipe{}.IsEmpty())
	assert.False(t, got.IsEmpty())
}
