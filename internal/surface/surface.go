// Package surface is how the app talks to the person at the keyboard:
// notifications, blocking alerts, a one-line text prompt, and the menu bar
// title.
package surface

// Notification is a non-blocking banner.
type Notification struct {
	Title    string
	Subtitle string
	Message  string
}

// PromptRequest describes a modal text entry.
type PromptRequest struct {
	Title   string
	Message string
	OK      string
	Cancel  string
}

// PromptResponse is the user's answer. Text is untrimmed.
type PromptResponse struct {
	Confirmed bool
	Text      string
}

// Surface is implemented by the menu bar, the native dialog layer and the
// console. Alert and Prompt block until dismissed.
type Surface interface {
	Notify(n Notification)
	Alert(title, message string)
	Prompt(req PromptRequest) PromptResponse
	SetTitle(title string)
}

// Multi fans Notify and SetTitle out to every surface. Alert and Prompt go
// to the first one only.
type Multi []Surface

func (m Multi) Notify(n Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}

func (m Multi) SetTitle(title string) {
	for _, s := range m {
		s.SetTitle(title)
	}
}

func (m Multi) Alert(title, message string) {
	if len(m) > 0 {
		m[0].Alert(title, message)
	}
}

func (m Multi) Prompt(req PromptRequest) PromptResponse {
	if len(m) == 0 {
		return PromptResponse{}
	}
	return m[0].Prompt(req)
}
