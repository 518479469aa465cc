package wizards

import (
	wizard "github.com/goliatone/go-wizard"
	v "github.com/goliatone/go-wizard/validation"
)

// ApplyJobDefinition is a support worker's application to a job. The job
// id is supplied as a default when the session starts.
func ApplyJobDefinition() *wizard.Definition {
	def := wizard.MustDefinition(wizard.NewDefinition(ApplyJob, "Apply for job",
		wizard.Step{
			ID:    "availability",
			Title: "Availability",
			Order: 1,
			Inputs: []wizard.Input{
				{ID: "availableDays", Label: "Available days", Description: "e.g. mon, wed, fri", Kind: wizard.KindMulti, Choices: choices(Weekdays...)},
				{ID: "startDate", Label: "Earliest start date", Kind: wizard.KindDate, Placeholder: v.DateLayout},
			},
			Validator: v.NewSchema(
				v.NewField("jobId", v.Required),
				v.NewField("availableDays", v.Required, v.MinItems(1), v.OneOf(Weekdays...)),
				v.NewField("startDate", v.Required, v.Date(v.DateLayout)),
			),
		},
		wizard.Step{
			ID:    "cover",
			Title: "Cover letter",
			Order: 2,
			Inputs: []wizard.Input{
				{ID: "coverLetter", Label: "Why are you a good fit?", Kind: wizard.KindTextarea},
			},
			Validator: v.NewSchema(
				v.NewField("coverLetter", v.Required, v.MinLength(50), v.MaxLength(4000)),
			),
		},
		wizard.Step{
			ID:    "declaration",
			Title: "Declaration",
			Order: 3,
			Inputs: []wizard.Input{
				{ID: "declaration", Label: "The information I provided is true", Kind: wizard.KindBool},
			},
			Validator: v.NewSchema(
				v.NewField("declaration", v.Required, v.Accepted),
			),
			Terminal: true,
		},
	))
	return def.WithRoles(wizard.RoleSupportWorker)
}
