package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		categoryID  string
		itemName    string
		wantKind    Kind
		wantTracked bool
		wantIsFood  bool
		wantIsDrink bool
	}{
		{"food category", "pratos-principais", "Feijoada", KindFood, false, true, false},
		{"food category tracked", "sobremesas", "Pudim", KindFood, true, true, false},
		{"drink category", "cervejas", "Heineken 600ml", KindDrink, true, false, true},
		{"untracked drink category", "drinks", "Caipirinha", KindDrink, false, false, true},
		{"diacritics and case", "  Porções ", "Fritas", KindFood, false, true, false},
		{"drink by name keyword", "diversos", "Suco de Laranja", KindDrink, true, false, true},
		{"beer keyword", "promocao", "Cerveja artesanal", KindDrink, true, false, true},
		{"food by name keyword", "especiais", "Hambúrguer da casa", KindFood, true, true, false},
		{"unclassified defaults to food", "outros", "Combo especial", KindUnclassified, true, true, false},
		{"empty inputs", "", "", KindUnclassified, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.categoryID, tt.itemName)
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.wantTracked, c.StockTracked)
			assert.Equal(t, tt.wantIsFood, c.IsFood())
			assert.Equal(t, tt.wantIsDrink, c.IsDrink())
		})
	}
}

func TestClassifyCategoryWinsOverName(t *testing.T) {
	c := Classify("sobremesas", "Vinho do Porto")
	assert.Equal(t, KindFood, c.Kind)
}

func TestIsStockTracked(t *testing.T) {
	assert.False(t, IsStockTracked("acompanhamentos"))
	assert.False(t, IsStockTracked("Saladas"))
	assert.True(t, IsStockTracked("cervejas"))
	assert.True(t, IsStockTracked("unknown-category"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "porcoes", Fold("Porções"))
	assert.Equal(t, "bebidas-nao-alcoolicas", Fold(" Bebidas-Não-Alcoólicas "))
	assert.Equal(t, "", Fold("   "))
}
