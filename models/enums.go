package models

// Lifecycle statuses. The progress-state name differs per track: planning uses
// "En planificación", execution "En ejecución", reporting "En progreso"; the
// aggregate status additionally uses "En reporte".
const (
	StatusPorIniciar      = "Por iniciar"
	StatusEnPlanificacion = "En planificación"
	StatusEnEjecucion     = "En ejecución"
	StatusEnProgreso      = "En progreso"
	StatusEnReporte       = "En reporte"
	StatusCompletado      = "Completado"
	StatusSuspendido      = "Suspendido"
)

// Risk probability levels.
const (
	ProbabilityBaja  = "Baja"
	ProbabilityMedia = "Media"
	ProbabilityAlta  = "Alta"
)

// Risk impact levels.
const (
	ImpactBajo  = "Bajo"
	ImpactMedio = "Medio"
	ImpactAlto  = "Alto"
)

// Banded risk levels (inherent and residual).
const (
	RiskLabelBajo  = "Bajo"
	RiskLabelMedio = "Medio"
	RiskLabelAlto  = "Alto"
)

// Theoretical control effectiveness.
const (
	EffectivenessOptimo     = "Óptimo"
	EffectivenessAceptable  = "Aceptable"
	EffectivenessDeficiente = "Deficiente"
)

// Finding classification.
const (
	ClassificationMenor      = "Menor"
	ClassificationModerado   = "Moderado"
	ClassificationImportante = "Importante"
	ClassificationCritico    = "Crítico"
)

// Finding type.
const (
	FindingTypeConforme   = "Conforme"
	FindingTypeNoConforme = "No conforme"
)

// Entity type names used by slug collision errors.
const (
	EntityTypeAuditProgram = "AuditProgram"
	EntityTypeAuditTest    = "AuditTest"
	EntityTypeAuditFinding = "AuditFinding"
)

func IsValidProbability(label string) bool {
	switch label {
	case ProbabilityBaja, ProbabilityMedia, ProbabilityAlta:
		return true
	}
	return false
}

func IsValidImpact(label string) bool {
	switch label {
	case ImpactBajo, ImpactMedio, ImpactAlto:
		return true
	}
	return false
}

func IsValidEffectiveness(label string) bool {
	switch label {
	case EffectivenessOptimo, EffectivenessAceptable, EffectivenessDeficiente:
		return true
	}
	return false
}

func IsValidClassification(label string) bool {
	switch label {
	case ClassificationMenor, ClassificationModerado, ClassificationImportante, ClassificationCritico:
		return true
	}
	return false
}

func IsValidFindingType(label string) bool {
	switch label {
	case FindingTypeConforme, FindingTypeNoConforme:
		return true
	}
	return false
}
