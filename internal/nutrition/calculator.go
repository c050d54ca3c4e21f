// Package nutrition calcula la tasa metabolica basal y el reparto de macronutrientes.
package nutrition

import (
	"math"
	"strings"
	"time"
)

const (
	proteinShare = 0.30
	fatShare     = 0.25
	carbsShare   = 0.45

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
)

// Biometrics agrupa las entradas del calculo.
type Biometrics struct {
	WeightKg      float64
	HeightCm      float64
	Gender        string
	Birthdate     time.Time
	ActivityLevel ActivityLevel
	Objective     Objective
}

// Macros es el objetivo diario calculado.
type Macros struct {
	DailyCalories float64 `json:"daily_calories"`
	ProteinGrams  int     `json:"protein_grams"`
	FatGrams      int     `json:"fat_grams"`
	CarbsGrams    int     `json:"carbs_grams"`
}

// Age es la diferencia de anios calendario, sin considerar mes ni dia.
func Age(birthdate, asOf time.Time) int {
	return asOf.Year() - birthdate.Year()
}

// CalculateBMR aplica Harris-Benedict revisada. Solo "male" (sin importar
// mayusculas) usa la rama masculina; cualquier otro valor usa la femenina.
func CalculateBMR(weightKg, heightCm float64, gender string, birthdate, asOf time.Time) float64 {
	age := float64(Age(birthdate, asOf))
	if strings.ToLower(gender) == "male" {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*age
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*age
}

// CalculateMacronutrients ajusta las calorias segun el objetivo y las reparte
// 30/25/45 entre proteina, grasa y carbohidratos. Cada valor en gramos se
// redondea por separado; el error de redondeo no se redistribuye.
func CalculateMacronutrients(calories float64, objective Objective) Macros {
	adjusted := calories + objective.CalorieAdjustment()
	return Macros{
		DailyCalories: adjusted,
		ProteinGrams:  roundHalfUp(adjusted * proteinShare / kcalPerGramProtein),
		FatGrams:      roundHalfUp(adjusted * fatShare / kcalPerGramFat),
		CarbsGrams:    roundHalfUp(adjusted * carbsShare / kcalPerGramCarbs),
	}
}

// Compute encadena BMR, factor de actividad y reparto de macronutrientes.
func Compute(b Biometrics, asOf time.Time) Macros {
	bmr := CalculateBMR(b.WeightKg, b.HeightCm, b.Gender, b.Birthdate, asOf)
	return CalculateMacronutrients(bmr*b.ActivityLevel.Factor(), b.Objective)
}

// roundHalfUp redondea .5 hacia +inf, tambien para negativos.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
