package wizards

import (
	wizard "github.com/goliatone/go-wizard"
	v "github.com/goliatone/go-wizard/validation"
)

// SupportWorkerSetupDefinition onboards a support worker.
func SupportWorkerSetupDefinition() *wizard.Definition {
	def := wizard.MustDefinition(wizard.NewDefinition(SupportWorkerSetup, "Support worker setup",
		wizard.Step{
			ID:    "profile",
			Title: "Profile",
			Order: 1,
			Inputs: []wizard.Input{
				{ID: "firstName", Label: "First name"},
				{ID: "lastName", Label: "Last name"},
				{ID: "phone", Label: "Phone"},
			},
			Validator: v.NewSchema(
				v.NewField("firstName", v.Required),
				v.NewField("lastName", v.Required),
				v.NewField("phone", v.Required, v.Pattern(phonePattern, "must be an Australian phone number")),
			),
		},
		wizard.Step{
			ID:    "qualifications",
			Title: "Qualifications",
			Order: 2,
			Inputs: []wizard.Input{
				{ID: "qualifications", Label: "Qualifications", Description: "Comma separated", Kind: wizard.KindMulti},
				{ID: "yearsExperience", Label: "Years of experience", Kind: wizard.KindNumber},
			},
			Validator: v.NewSchema(
				v.NewField("qualifications", v.Required, v.MinItems(1)),
				v.NewField("yearsExperience", v.Required, v.Min(0)),
			),
		},
		wizard.Step{
			ID:    "compliance",
			Title: "Compliance checks",
			Order: 3,
			Inputs: []wizard.Input{
				{ID: "wwccNumber", Label: "Working with children check number"},
				{ID: "policeCheckExpiry", Label: "Police check expiry", Kind: wizard.KindDate, Placeholder: v.DateLayout},
			},
			Validator: v.NewSchema(
				v.NewField("wwccNumber", v.Required),
				v.NewField("policeCheckExpiry", v.Required, v.Date(v.DateLayout)),
			),
		},
		wizard.Step{
			ID:    "banking",
			Title: "Payment details",
			Order: 4,
			Inputs: []wizard.Input{
				{ID: "abn", Label: "ABN"},
				{ID: "bsb", Label: "BSB"},
				{ID: "accountNumber", Label: "Account number", Kind: wizard.KindSecret},
			},
			Validator: v.NewSchema(
				v.NewField("abn", v.Required, v.Pattern(abnPattern, "must be 11 digits")),
				v.NewField("bsb", v.Required, v.Pattern(bsbPattern, "must be a 6 digit BSB")),
				v.NewField("accountNumber", v.Required, v.Pattern(accountPattern, "must be 6 to 10 digits")),
			),
			Terminal: true,
		},
	))
	return def.WithDrafts().WithRoles(wizard.RoleSupportWorker, wizard.RoleAdmin)
}
