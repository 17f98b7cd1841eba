package rules

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind is the semantic bucket of a menu/inventory category.
type Kind string

const (
	KindFood         Kind = "food"
	KindDrink        Kind = "drink"
	KindUnclassified Kind = "unclassified"
)

// Classification is the result of Classify.
type Classification struct {
	Kind         Kind `json:"kind"`
	StockTracked bool `json:"stock_tracked"`
}

// IsFood treats unclassified items as food.
func (c Classification) IsFood() bool {
	return c.Kind == KindFood || c.Kind == KindUnclassified
}

// IsDrink reports whether the item belongs to the bar.
func (c Classification) IsDrink() bool {
	return c.Kind == KindDrink
}

var foodCategories = map[string]struct{}{
	"pratos-principais": {},
	"entradas":          {},
	"petiscos":          {},
	"porcoes":           {},
	"lanches":           {},
	"sobremesas":        {},
	"acompanhamentos":   {},
	"saladas":           {},
	"massas":            {},
	"carnes":            {},
	"frutos-do-mar":     {},
	"pizzas":            {},
}

var drinkCategories = map[string]struct{}{
	"bebidas":                {},
	"bebidas-alcoolicas":     {},
	"bebidas-nao-alcoolicas": {},
	"cervejas":               {},
	"chopes":                 {},
	"drinks":                 {},
	"vinhos":                 {},
	"destilados":             {},
	"refrigerantes":          {},
	"sucos":                  {},
	"cafes":                  {},
	"aguas":                  {},
}

// Items in these categories are priced but never depleted by a sale.
var noStockCategories = map[string]struct{}{
	"pratos-principais": {},
	"acompanhamentos":   {},
	"porcoes":           {},
	"saladas":           {},
	"drinks":            {},
}

var drinkKeywords = []string{
	"cerveja", "chope", "chopp", "vinho", "suco", "refrigerante", "refri",
	"agua", "cafe", "cha ", "drink", "caipirinha", "caipiroska", "whisky",
	"vodka", "gin ", "dose", "licor", "espumante", "energetico", "soda",
	"coca", "guarana", "tonica",
}

var foodKeywords = []string{
	"prato", "porcao", "lanche", "hamburguer", "burger", "pizza", "salada",
	"file", "frango", "peixe", "camarao", "batata", "arroz", "feijao",
	"sobremesa", "pudim", "torta", "sanduiche", "pastel", "espeto",
}

// Fold lowercases, trims and strips diacritics so "Porções" matches "porcoes".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Classify maps a category identifier to a semantic bucket and tells whether
// its items are stock-tracked. Identifiers outside the known sets fall back to
// keyword matching on the item's display name. It never fails.
func Classify(categoryID, itemName string) Classification {
	id := Fold(categoryID)
	_, untracked := noStockCategories[id]
	c := Classification{StockTracked: !untracked}

	if _, ok := foodCategories[id]; ok {
		c.Kind = KindFood
		return c
	}
	if _, ok := drinkCategories[id]; ok {
		c.Kind = KindDrink
		return c
	}

	// pad so keywords ending in a space match at the end of the name
	name := Fold(itemName) + " "
	for _, kw := range drinkKeywords {
		if strings.Contains(name, kw) {
			c.Kind = KindDrink
			return c
		}
	}
	for _, kw := range foodKeywords {
		if strings.Contains(name, kw) {
			c.Kind = KindFood
			return c
		}
	}
	c.Kind = KindUnclassified
	return c
}

// IsStockTracked is shorthand for Classify(categoryID, "").StockTracked.
func IsStockTracked(categoryID string) bool {
	_, untracked := noStockCategories[Fold(categoryID)]
	return !untracked
}
