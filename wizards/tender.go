package wizards

import (
	wizard "github.com/goliatone/go-wizard"
	v "github.com/goliatone/go-wizard/validation"
)

// TenderDefinition builds the tender creation wizard. Coordinators and
// admins post tenders that support workers later apply to.
func TenderDefinition() *wizard.Definition {
	def := wizard.MustDefinition(wizard.NewDefinition(Tender, "Create tender",
		wizard.Step{
			ID:    "details",
			Title: "Tender details",
			Order: 1,
			Inputs: []wizard.Input{
				{ID: "title", Label: "Title", Kind: wizard.KindText},
				{ID: "description", Label: "Description", Kind: wizard.KindTextarea},
				{ID: "category", Label: "Service category", Kind: wizard.KindSelect, Choices: choices(ServiceCategories...)},
			},
			Validator: v.NewSchema(
				v.NewField("title", v.Required, v.MinLength(5), v.MaxLength(120)),
				v.NewField("description", v.Required, v.MinLength(20)),
				v.NewField("category", v.Required, v.OneOf(ServiceCategories...)),
			),
		},
		wizard.Step{
			ID:    "schedule",
			Title: "Schedule",
			Order: 2,
			Inputs: []wizard.Input{
				{ID: "startDate", Label: "Start date", Kind: wizard.KindDate, Placeholder: v.DateLayout},
				{ID: "endDate", Label: "End date", Kind: wizard.KindDate, Placeholder: v.DateLayout},
				{ID: "hoursPerWeek", Label: "Hours per week", Kind: wizard.KindNumber},
			},
			Validator: v.NewSchema(
				v.NewField("startDate", v.Required, v.Date(v.DateLayout)),
				v.NewField("endDate", v.Required, v.Date(v.DateLayout), v.After("startDate", v.DateLayout)),
				v.NewField("hoursPerWeek", v.Required, v.Range(1, 168)),
			),
		},
		wizard.Step{
			ID:    "requirements",
			Title: "Requirements",
			Order: 3,
			Inputs: []wizard.Input{
				{ID: "skills", Label: "Skills", Description: "Comma separated", Kind: wizard.KindMulti},
				{ID: "genderPreference", Label: "Gender preference", Kind: wizard.KindSelect, Choices: choices("any", "female", "male")},
				{ID: "budget", Label: "Hourly budget (AUD)", Kind: wizard.KindNumber},
			},
			Validator: v.NewSchema(
				v.NewField("skills", v.Required, v.MinItems(1)),
				v.NewField("genderPreference", v.OneOf("any", "female", "male")),
				v.NewField("budget", v.Min(0)),
			),
		},
		wizard.Step{
			ID:       "review",
			Title:    "Review and publish",
			Order:    4,
			Terminal: true,
		},
	))
	return def.WithDrafts().WithRoles(wizard.RoleAdmin, wizard.RoleCoordinator).
		WithDescription("Publish a support tender for workers to apply to.")
}
