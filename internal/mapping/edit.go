package mapping

import "evalgo.org/bffgate/models"

// PutResponse returns list with m applied: any mapping with the same target
// field is removed and m is appended, so the newest mapping wins.
func PutResponse(list []models.ResponseMapping, m models.ResponseMapping) []models.ResponseMapping {
	out := RemoveResponse(list, m.TargetFieldID)
	return append(out, m)
}

// RemoveResponse returns list without the mapping for targetFieldID.
func RemoveResponse(list []models.ResponseMapping, targetFieldID string) []models.ResponseMapping {
	out := make([]models.ResponseMapping, 0, len(list))
	for _, existing := range list {
		if existing.TargetFieldID != targetFieldID {
			out = append(out, existing)
		}
	}
	return out
}

// PutRequest returns list with m applied, replacing any mapping for the same
// (endpoint, field) target.
func PutRequest(list []models.RequestMapping, m models.RequestMapping) []models.RequestMapping {
	out := RemoveRequest(list, m.Key())
	return append(out, m)
}

// RemoveRequest returns list without the mapping for target.
func RemoveRequest(list []models.RequestMapping, target models.RequestTarget) []models.RequestMapping {
	out := make([]models.RequestMapping, 0, len(list))
	for _, existing := range list {
		if existing.Key() != target {
			out = append(out, existing)
		}
	}
	return out
}

// DedupeResponse collapses duplicate targets, keeping the last occurrence of
// each at the position of that occurrence.
func DedupeResponse(list []models.ResponseMapping) []models.ResponseMapping {
	var out []models.ResponseMapping
	for _, m := range list {
		out = PutResponse(out, m)
	}
	if out == nil {
		out = []models.ResponseMapping{}
	}
	return out
}

// DedupeRequest collapses duplicate request targets the same way.
func DedupeRequest(list []models.RequestMapping) []models.RequestMapping {
	var out []models.RequestMapping
	for _, m := range list {
		out = PutRequest(out, m)
	}
	if out == nil {
		out = []models.RequestMapping{}
	}
	return out
}
