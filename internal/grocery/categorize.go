package grocery

import "strings"

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is checked in order, so more specific keywords come before
// the broad ones that contain them ("ice cream" before "cream").
var categoryRules = []categoryRule{
	{"Produce", []string{"eggplant", "watermelon"}},
	{"Frozen", []string{"ice cream", "frozen", "popsicle", "tater tots"}},
	{"Dairy", []string{"milk", "cheese", "yogurt", "butter", "cream", "egg", "cottage"}},
	{"Meat & Seafood", []string{"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham", "steak", "salmon", "shrimp", "tuna", "fish"}},
	{"Bakery", []string{"bread", "bagel", "tortilla", "muffin", "croissant", "bun", "roll"}},
	{"Beverages", []string{"coffee", "tea", "juice", "soda", "water", "beer", "wine", "kombucha"}},
	{"Snacks", []string{"chips", "cracker", "cookie", "pretzel", "popcorn", "granola", "nuts"}},
	{"Household", []string{"paper towel", "toilet paper", "detergent", "soap", "trash bag", "foil", "sponge"}},
	{"Pantry", []string{"rice", "pasta", "flour", "sugar", "oil", "vinegar", "cereal", "oats", "beans", "sauce", "soup", "salt", "spice", "honey"}},
	{"Produce", []string{"apple", "banana", "orange", "lemon", "lime", "avocado", "tomato", "potato", "onion", "garlic", "lettuce", "spinach", "kale", "broccoli", "carrot", "celery", "cucumber", "pepper", "mushroom", "berries", "grape", "fruit", "salad"}},
	{"Personal Care", []string{"shampoo", "toothpaste", "deodorant", "lotion", "razor", "floss"}},
}

// Categorize suggests a shelf category for an item name. Keywords match at
// the start of a word, so "ham" does not match "shampoo". It reports false
// when no rule matches.
func Categorize(itemName string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return "", false
	}
	name = " " + strings.Join(strings.Fields(name), " ")
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, " "+kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}
