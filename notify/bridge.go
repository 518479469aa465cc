package notify

import (
	"strings"

	wizard "github.com/goliatone/go-wizard"
)

// TopicFor returns the topic a wizard event is published under, such as
// wizard.tender.submission_failed.
func TopicFor(ev wizard.Event) string {
	return Topic("wizard", ev.WizardID, string(ev.Kind))
}

// Bridge returns a listener that turns controller outcomes into
// notifications. Plain state changes are not forwarded.
func Bridge(center *Center, titles ...map[string]string) wizard.Listener {
	names := map[string]string{}
	for _, t := range titles {
		for k, v := range t {
			names[k] = v
		}
	}
	return func(ev wizard.Event) {
		if center == nil {
			return
		}
		n, ok := fromEvent(ev, names[ev.WizardID])
		if !ok {
			return
		}
		center.Publish(n)
	}
}

func fromEvent(ev wizard.Event, title string) (Notification, bool) {
	if strings.TrimSpace(title) == "" {
		title = ev.WizardID
	}
	n := Notification{Topic: TopicFor(ev), Title: title, Err: ev.Err, At: ev.At}
	switch ev.Kind {
	case wizard.EventSubmitted:
		n.Level = LevelSuccess
		n.Message = "Submitted successfully"
	case wizard.EventSubmissionFailed:
		n.Level = LevelError
		n.Message = "Submission failed"
		if ev.State.LastError != "" {
			n.Message += ": " + ev.State.LastError
		}
	case wizard.EventDraftSaved:
		n.Level = LevelInfo
		n.Message = "Draft saved"
	case wizard.EventDraftFailed:
		n.Level = LevelWarning
		n.Message = "Draft could not be saved"
		if ev.Err != nil {
			n.Message += ": " + ev.Err.Error()
		}
	default:
		return Notification{}, false
	}
	return n, true
}
