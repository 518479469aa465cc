package wizards

import (
	wizard "github.com/goliatone/go-wizard"
	v "github.com/goliatone/go-wizard/validation"
)

// IncidentDefinition is the three step incident report any staff member
// or participant can file.
func IncidentDefinition() *wizard.Definition {
	return wizard.MustDefinition(wizard.NewDefinition(Incident, "Report incident",
		wizard.Step{
			ID:    "details",
			Title: "What happened",
			Order: 1,
			Inputs: []wizard.Input{
				{ID: "title", Label: "Title"},
				{ID: "occurredAt", Label: "Date", Kind: wizard.KindDate, Placeholder: v.DateLayout},
				{ID: "location", Label: "Location"},
				{ID: "description", Label: "Description", Kind: wizard.KindTextarea},
			},
			Validator: v.NewSchema(
				v.NewField("title", v.Required, v.MaxLength(120)),
				v.NewField("occurredAt", v.Required, v.Date(v.DateLayout)),
				v.NewField("location", v.Required),
			),
		},
		wizard.Step{
			ID:    "people",
			Title: "People involved",
			Order: 2,
			Inputs: []wizard.Input{
				{ID: "participantId", Label: "Participant id"},
				{ID: "witnesses", Label: "Witnesses", Description: "Comma separated names", Kind: wizard.KindMulti},
			},
			Validator: v.NewSchema(
				v.NewField("participantId", v.Required),
			),
		},
		wizard.Step{
			ID:    "review",
			Title: "Severity and actions",
			Order: 3,
			Inputs: []wizard.Input{
				{ID: "severity", Label: "Severity", Kind: wizard.KindSelect, Choices: choices(Severities...)},
				{ID: "actionsTaken", Label: "Actions taken", Kind: wizard.KindTextarea},
			},
			Validator: v.NewSchema(
				v.NewField("severity", v.Required, v.OneOf(Severities...)),
				v.NewField("actionsTaken", v.Required, v.MinLength(10)),
			),
			Terminal: true,
		},
	)).WithDescription("Report an incident involving a participant.")
}
