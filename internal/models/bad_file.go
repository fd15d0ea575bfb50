// This file defines the data structure for tracking files the scanner could
// not turn into catalog entries.

package models

import "time"

// BadFile represents an unparseable or unreadable file in a library.
type BadFile struct {
	ID          int64     `json:"id"`
	LibraryID   int64     `json:"library_id"`
	Path        string    `json:"path"`
	FileName    string    `json:"file_name"`
	Error       string    `json:"error"`
	FileSize    int64     `json:"file_size"`
	DetectedAt  time.Time `json:"detected_at"`
	LastChecked time.Time `json:"last_checked"`
}

// BadFileError represents different types of file errors
type BadFileError string

const (
	ErrorUnparseable       BadFileError = "unparseable"
	ErrorCorruptedArchive  BadFileError = "corrupted_archive"
	ErrorPasswordProtected BadFileError = "password_protected"
	ErrorEmptyArchive      BadFileError = "empty_archive"
	ErrorUnsupportedFormat BadFileError = "unsupported_format"
	ErrorIOError           BadFileError = "io_error"
)

// String returns the human-readable error description
func (e BadFileError) String() string {
	switch e {
	case ErrorUnparseable:
		return "Unparseable Name"
	case ErrorCorruptedArchive:
		return "Corrupted Archive"
	case ErrorPasswordProtected:
		return "Password Protected"
	case ErrorEmptyArchive:
		return "Empty Archive"
	case ErrorUnsupportedFormat:
		return "Unsupported Format"
	case ErrorIOError:
		return "I/O Error"
	default:
		return "Unknown Error"
	}
}
