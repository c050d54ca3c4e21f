package nutrition

import "strings"

// ActivityLevel es el nivel de actividad fisica declarado.
type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentario"
	Light      ActivityLevel = "ligero"
	Moderate   ActivityLevel = "moderado"
	Active     ActivityLevel = "activo"
	VeryActive ActivityLevel = "muy_activo"
)

var activityAliases = map[string]ActivityLevel{
	"sedentario":  Sedentary,
	"sedentary":   Sedentary,
	"ligero":      Light,
	"light":       Light,
	"moderado":    Moderate,
	"moderate":    Moderate,
	"activo":      Active,
	"active":      Active,
	"muy_activo":  VeryActive,
	"very-active": VeryActive,
	"very_active": VeryActive,
}

// ParseActivityLevel normaliza alias en ingles o espanol al valor canonico.
// Si el valor no se reconoce se devuelve tal cual y ok=false.
func ParseActivityLevel(s string) (ActivityLevel, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if level, ok := activityAliases[key]; ok {
		return level, true
	}
	return ActivityLevel(strings.TrimSpace(s)), false
}

// Factor devuelve el multiplicador de gasto energetico.
// Un nivel desconocido usa el de Moderate (1.55).
func (l ActivityLevel) Factor() float64 {
	switch l {
	case Sedentary:
		return 1.2
	case Light:
		return 1.375
	case Moderate:
		return 1.55
	case Active:
		return 1.725
	case VeryActive:
		return 1.9
	default:
		return 1.55
	}
}

// Objective es la meta declarada del usuario.
type Objective string

const (
	LoseWeight Objective = "perder_peso"
	Maintain   Objective = "mantener"
	GainMass   Objective = "ganar_masa"
)

var objectiveAliases = map[string]Objective{
	"perder_peso": LoseWeight,
	"lose-weight": LoseWeight,
	"lose_weight": LoseWeight,
	"mantener":    Maintain,
	"maintain":    Maintain,
	"ganar_masa":  GainMass,
	"gain-mass":   GainMass,
	"gain_mass":   GainMass,
	"gain-muscle": GainMass,
	"gain_muscle": GainMass,
}

// ParseObjective normaliza alias al valor canonico, igual que ParseActivityLevel.
func ParseObjective(s string) (Objective, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if obj, ok := objectiveAliases[key]; ok {
		return obj, true
	}
	return Objective(strings.TrimSpace(s)), false
}

// CalorieAdjustment devuelve el ajuste diario en kcal.
// Un objetivo desconocido no ajusta.
func (o Objective) CalorieAdjustment() float64 {
	switch o {
	case LoseWeight:
		return -500
	case GainMass:
		return 500
	default:
		return 0
	}
}
