package domain

// ImageStatus represents the processing status of an uploaded form image.
// Values include StatusUploaded, StatusProcessing, StatusCompleted,
// StatusVerify, and StatusSynced.
type ImageStatus string

const (
	StatusUploaded   ImageStatus = "Uploaded"
	StatusProcessing ImageStatus = "Processing"
	StatusCompleted  ImageStatus = "Completed"
	StatusVerify     ImageStatus = "Verify"
	StatusSynced     ImageStatus = "Synced"
)

// statusTransitions is the set of expected status changes. Anything outside
// this table is still applied (the store is the system of record and older
// clients write free-form values) but is logged as unexpected.
var statusTransitions = map[ImageStatus][]ImageStatus{
	StatusUploaded:   {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusUploaded},
	StatusCompleted:  {StatusProcessing, StatusVerify},
	StatusVerify:     {StatusSynced, StatusProcessing},
	StatusSynced:     {StatusProcessing},
}

// IsKnownStatus reports whether s is one of the closed status values.
func IsKnownStatus(s ImageStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// ValidTransition reports whether moving from to next is an expected
// transition. Writing the same status again counts as expected (idempotent
// re-assertion, used by the worker's Processing re-mark).
func ValidTransition(from, next ImageStatus) bool {
	if from == next {
		return true
	}
	targets, ok := statusTransitions[from]
	if !ok {
		// Unknown origin, nothing to enforce.
		return true
	}
	for _, t := range targets {
		if t == next {
			return true
		}
	}
	return false
}
