package forms

// Form-field groups folded from flat dotted keys into nested objects. The
// SPA submits FormData with keys like "profissionalSolicitante.nome"; the
// repositories and the duplicate guard expect the nested shape.
var nestedGroups = map[string][]string{
	"profissionalSolicitante": {"nome", "numeroRegistro", "especialidade"},
	"instituicao":             {"nome", "cnpj"},
}

// Normalize folds recognized dotted keys into nested sub-objects, removing
// the flat keys. Unrecognized dotted keys are left untouched. The transform
// is total and idempotent; a nil body is a no-op.
func Normalize(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}

	for group, fields := range nestedGroups {
		var present bool
		for _, field := range fields {
			if _, ok := body[group+"."+field]; ok {
				present = true
				break
			}
		}
		if !present {
			continue
		}

		nested, _ := body[group].(map[string]interface{})
		if nested == nil {
			nested = make(map[string]interface{})
		}
		for _, field := range fields {
			if value, ok := body[group+"."+field]; ok {
				nested[field] = value
				delete(body, group+"."+field)
			}
		}
		body[group] = nested
	}

	return body
}
