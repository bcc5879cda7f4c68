package contracts

import "fmt"

// InputTooLongError reports a replacement value whose encoded form exceeds the
// capacity of the placeholder it would overwrite. The caller may re-prompt for
// shorter input and retry.
type InputTooLongError struct {
	Field string
	Value string
	Limit int
}

func (this InputTooLongError) Error() string {
	return fmt.Sprintf("%s %q exceeds the %d-character placeholder capacity", this.Field, this.Value, this.Limit)
}

// PlaceholderNotFoundError means the template and this tool disagree about the
// placeholder byte sequence. That is a template-integrity defect, not bad user input.
type PlaceholderNotFoundError struct {
	Placeholder string
}

func (this PlaceholderNotFoundError) Error() string {
	return fmt.Sprintf("placeholder %q not found in any supported encoding", this.Placeholder)
}

type RequiredEntryMissingError struct {
	Entry string
}

func (this RequiredEntryMissingError) Error() string {
	return fmt.Sprintf("required entry %q missing from template archive", this.Entry)
}

type ImageDecodeError struct {
	Cause error
}

func (this ImageDecodeError) Error() string { return "unreadable icon image: " + this.Cause.Error() }
func (this ImageDecodeError) Unwrap() error { return this.Cause }

type SigningError struct {
	Cause error
}

func (this SigningError) Error() string { return "signing failed: " + this.Cause.Error() }
func (this SigningError) Unwrap() error { return this.Cause }

type ValidationError struct {
	Field  string
	Reason string
}

func (this ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", this.Field, this.Reason)
}

// StageError is the single terminal failure handed to the caller: the stage
// that was executing plus the underlying cause. The pipeline never retries.
type StageError struct {
	Stage BuildStage
	Cause error
}

func (this StageError) Error() string {
	return fmt.Sprintf("build failed during %s: %s", this.Stage, this.Cause)
}

func (this StageError) Unwrap() error { return this.Cause }
