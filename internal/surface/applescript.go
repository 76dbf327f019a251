package surface

import (
	"strings"
)

// userCanceled is the AppleScript error number for a dismissed dialog.
const userCanceled = "-128"

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func notificationScript(n Notification) string {
	var b strings.Builder
	b.WriteString("display notification ")
	b.WriteString(quote(n.Message))
	b.WriteString(" with title ")
	b.WriteString(quote(n.Title))
	if n.Subtitle != "" {
		b.WriteString(" subtitle ")
		b.WriteString(quote(n.Subtitle))
	}
	return b.String()
}

func alertScript(title, message string) string {
	return "display alert " + quote(title) + " message " + quote(message)
}

func promptScript(req PromptRequest) string {
	ok, cancel := req.OK, req.Cancel
	if ok == "" {
		ok = "OK"
	}
	if cancel == "" {
		cancel = "Cancel"
	}
	return "display dialog " + quote(req.Message) +
		` default answer ""` +
		" with title " + quote(req.Title) +
		" buttons {" + quote(cancel) + ", " + quote(ok) + "}" +
		" default button " + quote(ok) +
		" cancel button " + quote(cancel)
}

// parseDialog reads osascript's record output, e.g.
// "button returned:Save Milestone, text returned:shipped it".
func parseDialog(out, ok string) PromptResponse {
	out = strings.TrimRight(out, "\r\n")
	const btn, txt = "button returned:", "text returned:"

	bi := strings.Index(out, btn)
	ti := strings.Index(out, txt)
	if bi < 0 || ti < 0 || ti < bi {
		return PromptResponse{}
	}
	button := strings.TrimSuffix(strings.TrimSpace(out[bi+len(btn):ti]), ",")
	text := out[ti+len(txt):]
	if ok == "" {
		ok = "OK"
	}
	return PromptResponse{Confirmed: button == ok, Text: text}
}

func isUserCanceled(stderr string) bool {
	return strings.Contains(stderr, userCanceled)
}
