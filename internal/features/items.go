package features

import (
	"strings"

	"github.com/preppal/backend/internal/contracts"
)

type itemTraits struct {
	category   contracts.Category
	complexity int
}

// curatedItems is the lookup of known menu items. Items outside it are
// classified heuristically and flagged as new.
var curatedItems = map[string]itemTraits{
	"Jollof Rice":    {contracts.CategoryMainMeal, 3},
	"Fried Chicken":  {contracts.CategoryMainMeal, 2},
	"Beef Stew":      {contracts.CategoryMainMeal, 3},
	"Plantain":       {contracts.CategorySideDish, 1},
	"Vegetable Soup": {contracts.CategoryMainMeal, 3},
	"Espresso":       {contracts.CategoryBeverage, 1},
	"Cappuccino":     {contracts.CategoryBeverage, 1},
	"Latte":          {contracts.CategoryBeverage, 1},
	"Croissant":      {contracts.CategoryPastry, 2},
	"Sandwich":       {contracts.CategoryLightMeal, 2},
	"White Bread":    {contracts.CategoryBakery, 4},
	"Croissants":     {contracts.CategoryPastry, 4},
	"Donuts":         {contracts.CategoryDessert, 3},
	"Cake Slice":     {contracts.CategoryDessert, 5},
	"Cookies":        {contracts.CategoryDessert, 2},
}

var (
	beverageWords  = []string{"coffee", "tea", "juice", "smoothie", "latte", "espresso", "drink"}
	bakeryWords    = []string{"bread", "loaf"}
	dessertWords   = []string{"cake", "donut", "cookie", "muffin", "pastry", "pie"}
	lightMealWords = []string{"sandwich", "wrap", "roll"}
)

func containsAny(name string, words []string) bool {
	for _, w := range words {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// guessTraits classifies an unknown item from shelf life and price, then
// refines by keyword match against the name. Keywords win over the
// shelf-life/price heuristic.
func guessTraits(itemName string, price, shelfLifeHours float64) itemTraits {
	t := itemTraits{contracts.CategoryMainMeal, 2}
	switch {
	case shelfLifeHours < 2:
		t = itemTraits{contracts.CategoryBeverage, 1}
	case shelfLifeHours > 24:
		t = itemTraits{contracts.CategoryBakery, 3}
	case shelfLifeHours > 12:
		t = itemTraits{contracts.CategoryDessert, 3}
	case price < 25:
		t = itemTraits{contracts.CategorySideDish, 1}
	}

	n := strings.ToLower(itemName)
	switch {
	case containsAny(n, beverageWords):
		t = itemTraits{contracts.CategoryBeverage, 1}
	case containsAny(n, bakeryWords):
		t = itemTraits{contracts.CategoryBakery, 4}
	case containsAny(n, dessertWords):
		t = itemTraits{contracts.CategoryDessert, 3}
	case containsAny(n, lightMealWords):
		t = itemTraits{contracts.CategoryLightMeal, 2}
	}
	return t
}

// ClassifyItem resolves an item name into its profile. Curated items are
// marked known; anything else falls back to the heuristic.
func ClassifyItem(itemName string, price, shelfLifeHours float64) contracts.ItemProfile {
	if t, ok := curatedItems[itemName]; ok {
		return contracts.ItemProfile{
			Name:       itemName,
			Category:   t.category,
			Complexity: t.complexity,
			Known:      true,
		}
	}
	t := guessTraits(itemName, price, shelfLifeHours)
	return contracts.ItemProfile{
		Name:       itemName,
		Category:   t.category,
		Complexity: t.complexity,
		Known:      false,
	}
}
