package domain

import "time"

// NutritionTarget es el objetivo diario de una persona para una fecha.
// La fila mas reciente por fecha es la vigente.
type NutritionTarget struct {
	PersonID      string  `json:"-"`
	Date          Date    `json:"date"`
	DailyCalories float64 `json:"daily_calories"`
	ProteinGrams  int     `json:"protein_grams"`
	FatGrams      int     `json:"fat_grams"`
	CarbsGrams    int     `json:"carbs_grams"`
}

type WeightEntry struct {
	Date   Date    `json:"date"`
	Weight float64 `json:"weight"`
}

// Meal es una entrada del catalogo de alimentos, valores por 100 g.
type Meal struct {
	Barcode      string  `json:"barcode"`
	Name         string  `json:"name"`
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	FatGrams     float64 `json:"fat_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
}

type Consumption struct {
	ID            string    `json:"id"`
	PersonID      string    `json:"person_id"`
	Barcode       string    `json:"barcode"`
	QuantityGrams float64   `json:"quantity_grams"`
	Date          Date      `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ConsumptionTotals agrega lo consumido en un dia.
type ConsumptionTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}
