package domain

import (
	"encoding/json"
	"time"
)

// JobState represents the lifecycle state of an asynchronous job.
// PENDING -> STARTED -> SUCCESS | FAILURE. Cancellation is not modeled;
// an enqueued job always runs to completion or failure.
type JobState string

const (
	JobStatePending JobState = "PENDING"
	JobStateStarted JobState = "STARTED"
	JobStateSuccess JobState = "SUCCESS"
	JobStateFailure JobState = "FAILURE"
)

// Terminal reports whether the state is SUCCESS or FAILURE.
func (s JobState) Terminal() bool {
	return s == JobStateSuccess || s == JobStateFailure
}

// Task names dispatched through the queue.
const (
	TaskUploadImage = "tasks.upload_image"
	TaskExtractForm = "tasks.extract_form"
)

// Job is one asynchronous unit of work tracked by the queue. Jobs are
// ephemeral: results expire after the queue's retention window, so the
// image/extraction records remain the system of record.
type Job struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	State      JobState        `json:"state"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// UploadPayload is the argument tuple for TaskUploadImage. TempPath points
// at the file the API endpoint spooled to local disk before enqueueing.
type UploadPayload struct {
	TempPath         string      `json:"temp_path"`
	OriginalFilename string      `json:"original_filename"`
	Status           ImageStatus `json:"status"`
	FolderPath       string      `json:"folder_path"`
}

// UploadResult is the result payload of a successful TaskUploadImage run.
type UploadResult struct {
	ImageName string      `json:"image_name"`
	URL       string      `json:"url"`
	Status    ImageStatus `json:"status"`
}

// ExtractPayload is the argument tuple for TaskExtractForm. It doubles as
// the extraction request body, so the wire names match the image record's.
type ExtractPayload struct {
	ImageName  string      `json:"ImageName"`
	ImagePath  string      `json:"ImagePath"`
	Size       float64     `json:"Size"`
	Status     ImageStatus `json:"Status"`
	CreatedAt  string      `json:"CreatedAt"`
	FolderPath string      `json:"FolderPath"`
}

// ExtractResult is the result payload of a successful TaskExtractForm run.
// AnalysisResult may carry an embedded error marker when the engine returned
// malformed output; consumers must inspect the payload body, not just the
// job state.
type ExtractResult struct {
	ImageName      string  `json:"image_name"`
	AnalysisResult JSONMap `json:"analysis_result"`
}
