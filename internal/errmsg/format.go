// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Session setup
	OpLoadSource   Op = "load video"
	OpAttachPlayer Op = "attach player"
	OpResume       Op = "resume lesson"

	// Transport
	OpPlay     Op = "start playback"
	OpPause    Op = "pause playback"
	OpSeek     Op = "seek"
	OpRate     Op = "change playback speed"
	OpVolume   Op = "change volume"
	OpMute     Op = "toggle mute"
	OpPlayback Op = "play video"

	// Progress cache
	OpProgressLoad Op = "load lesson progress"
	OpProgressSave Op = "save lesson progress"

	// Course
	OpCourseLoad Op = "load course"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
