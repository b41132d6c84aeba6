package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the async job ID
	FieldJobID = "job_id"

	// FieldTask is the queue task name
	FieldTask = "task"

	// FieldImageName is the image record key being operated on
	FieldImageName = "image_name"

	// FieldFolderPath is the logical folder a mutation targets
	FieldFolderPath = "folder_path"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldUserID is the authenticated user ID
	FieldUserID = "user_id"
)

// Standard metric fields, attached at the call site for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
