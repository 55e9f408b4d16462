package constants

// IngestStatus is the outcome of ingesting one receipt file.
type IngestStatus string

const (
	IngestAccepted  IngestStatus = "ACCEPTED"  // scored and stored
	IngestDuplicate IngestStatus = "DUPLICATE" // same content already stored
	IngestInvalid   IngestStatus = "INVALID"   // rejected by validation
	IngestFailed    IngestStatus = "FAILED"    // unreadable file or store failure
)
