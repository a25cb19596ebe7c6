package engine

import "time"

// SubmissionLine is one material position in the submission payload.
type SubmissionLine struct {
	ID       int     `json:"id"`
	Amount   float64 `json:"amount"`
	Quantity float64 `json:"quantity"`
}

// SubmissionPayload is the plain data handed to the submission collaborator
// when a transformation is confirmed. The engine only builds it; transport
// is someone else's concern.
type SubmissionPayload struct {
	ToProjectObjectID       int              `json:"to_project_object_id"`
	ToResponsibleUserID     int              `json:"to_responsible_user_id"`
	DepartureAt             string           `json:"departure_at"`
	TransformationTypeID    int              `json:"transformation_type_id"`
	Comment                 string           `json:"comment"`
	MaterialsAfterTransform []SubmissionLine `json:"materials_after_transform"`
	MaterialsToTransform    []SubmissionLine `json:"materials_to_transform"`
	MaterialsRemains        []SubmissionLine `json:"materials_remains"`
}

// Submission builds the payload for the session's current state.
//
// materials_after_transform lists the produced lots by standard id. For cut
// sessions the produced lots live in the selection; join/angle sessions
// produce into the result collection.
//
// materials_to_transform lists the consumed deltas of the drawn-down source
// lots via CloneWithUsedAmounts; a lot merged into a join result is consumed
// whole.
func (s *Session) Submission() SubmissionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	produced := s.result
	if s.kind == KindCut {
		produced = s.selected
	}

	after := make([]SubmissionLine, 0, produced.Len())
	for _, l := range produced.Items() {
		standardID := 0
		if l.Standard != nil {
			standardID = l.Standard.ID
		}
		after = append(after, SubmissionLine{
			ID:       standardID,
			Amount:   l.Amount,
			Quantity: l.Quantity,
		})
	}

	toTransform := make([]SubmissionLine, 0, len(s.used))
	for _, l := range s.source.Items() {
		if !s.used[l.UUID] {
			continue
		}
		if l.JoinTo != "" {
			toTransform = append(toTransform, SubmissionLine{
				ID:       l.ID,
				Amount:   l.Amount,
				Quantity: l.Quantity,
			})
			continue
		}
		used := l.CloneWithUsedAmounts()
		toTransform = append(toTransform, SubmissionLine{
			ID:       used.ID,
			Amount:   used.Amount,
			Quantity: used.Quantity,
		})
	}

	departure := s.DepartureAt
	if departure.IsZero() {
		departure = time.Now()
	}

	return SubmissionPayload{
		ToProjectObjectID:       s.ToProjectObjectID,
		ToResponsibleUserID:     s.ToResponsibleUserID,
		DepartureAt:             departure.UTC().Format(time.RFC3339),
		TransformationTypeID:    int(s.kind),
		Comment:                 s.Comment,
		MaterialsAfterTransform: after,
		MaterialsToTransform:    toTransform,
		MaterialsRemains:        []SubmissionLine{},
	}
}
