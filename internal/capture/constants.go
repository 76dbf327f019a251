package capture

import "time"

// Scheduler configuration constants
const (
	// Bare menu bar title; after a save it becomes "📸 HH:MM".
	Icon = "📸"

	DefaultInterval = 60 * time.Second

	// Pending user actions queued for the event loop
	ActionBuffer = 16

	dateLayout  = "2006-01-02"
	timeLayout  = "15-04-05"
	titleLayout = "15:04"
)

// User-facing text
const (
	MilestonePromptTitle   = "Add Developer Note"
	MilestonePromptMessage = "What was the breakthrough or milestone you just reached?"
	MilestonePromptOK      = "Save Milestone"
	MilestonePromptCancel  = "Cancel"

	PermissionHint = "Try clicking 'Check Permissions' to resolve this issue."
	DocumentsHint  = "This might be a permissions issue with the Documents folder."
)
