package wizards

import (
	wizard "github.com/goliatone/go-wizard"
	v "github.com/goliatone/go-wizard/validation"
)

var planManagement = []string{"self", "plan", "agency"}

// ParticipantSetupDefinition is the participant onboarding flow. The plan
// manager step only applies to plan managed participants.
func ParticipantSetupDefinition() *wizard.Definition {
	def := wizard.MustDefinition(wizard.NewDefinition(ParticipantSetup, "Participant setup",
		wizard.Step{
			ID:    "personal",
			Title: "About you",
			Order: 1,
			Inputs: []wizard.Input{
				{ID: "firstName", Label: "First name"},
				{ID: "lastName", Label: "Last name"},
				{ID: "dateOfBirth", Label: "Date of birth", Kind: wizard.KindDate, Placeholder: v.DateLayout},
				{ID: "phone", Label: "Phone", Placeholder: "0412 345 678"},
			},
			Validator: v.NewSchema(
				v.NewField("firstName", v.Required, v.MaxLength(60)),
				v.NewField("lastName", v.Required, v.MaxLength(60)),
				v.NewField("dateOfBirth", v.Required, v.Date(v.DateLayout)),
				v.NewField("phone", v.Required, v.Pattern(phonePattern, "must be an Australian phone number")),
			),
		},
		wizard.Step{
			ID:    "address",
			Title: "Address",
			Order: 2,
			Inputs: []wizard.Input{
				{ID: "address.street", Label: "Street"},
				{ID: "address.suburb", Label: "Suburb"},
				{ID: "address.state", Label: "State", Kind: wizard.KindSelect, Choices: choices(States...)},
				{ID: "address.postcode", Label: "Postcode"},
			},
			Validator: v.NewSchema(
				v.NewField("address.street", v.Required),
				v.NewField("address.suburb", v.Required),
				v.NewField("address.state", v.Required, v.OneOf(States...)),
				v.NewField("address.postcode", v.Required, v.Pattern(postcodePattern, "must be 4 digits")),
			),
		},
		wizard.Step{
			ID:    "emergency",
			Title: "Emergency contact",
			Order: 3,
			Inputs: []wizard.Input{
				{ID: "emergencyContact.name", Label: "Name"},
				{ID: "emergencyContact.phone", Label: "Phone"},
				{ID: "emergencyContact.relationship", Label: "Relationship"},
			},
			Validator: v.NewSchema(
				v.NewField("emergencyContact.name", v.Required),
				v.NewField("emergencyContact.phone", v.Required, v.Pattern(phonePattern, "must be an Australian phone number")),
				v.NewField("emergencyContact.relationship", v.Required),
			),
		},
		wizard.Step{
			ID:    "plan",
			Title: "NDIS plan",
			Order: 4,
			Inputs: []wizard.Input{
				{ID: "ndisNumber", Label: "NDIS number"},
				{ID: "planManagement", Label: "Plan management", Kind: wizard.KindSelect, Choices: choices(planManagement...)},
			},
			Validator: v.NewSchema(
				v.NewField("ndisNumber", v.Required, v.Pattern(ndisPattern, "must be 9 digits")),
				v.NewField("planManagement", v.Required, v.OneOf(planManagement...)),
			),
		},
		wizard.Step{
			ID:    "plan_manager",
			Title: "Plan manager",
			Order: 5,
			Inputs: []wizard.Input{
				{ID: "planManagerEmail", Label: "Plan manager email"},
			},
			Validator: v.NewSchema(
				v.NewField("planManagerEmail", v.Required, v.Email),
			),
			Skip: func(data map[string]any, _ wizard.Actor) bool {
				return !v.FieldEquals("planManagement", "plan")(data)
			},
		},
		wizard.Step{
			ID:    "consent",
			Title: "Consent",
			Order: 6,
			Inputs: []wizard.Input{
				{ID: "consent", Label: "I consent to my information being shared with my support team", Kind: wizard.KindBool},
			},
			Validator: v.NewSchema(
				v.NewField("consent", v.Required, v.Accepted),
			),
			Terminal: true,
		},
	))
	return def.WithDrafts().WithRoles(wizard.RoleParticipant, wizard.RoleCoordinator, wizard.RoleAdmin)
}

// CreateParticipantDefinition lets staff register a participant on their
// behalf.
func CreateParticipantDefinition() *wizard.Definition {
	def := wizard.MustDefinition(wizard.NewDefinition(CreateParticipant, "Create participant",
		wizard.Step{
			ID:    "basics",
			Title: "Participant",
			Order: 1,
			Inputs: []wizard.Input{
				{ID: "firstName", Label: "First name"},
				{ID: "lastName", Label: "Last name"},
				{ID: "email", Label: "Email"},
			},
			Validator: v.NewSchema(
				v.NewField("firstName", v.Required),
				v.NewField("lastName", v.Required),
				v.NewField("email", v.Required, v.Email),
			),
		},
		wizard.Step{
			ID:    "plan",
			Title: "Plan",
			Order: 2,
			Inputs: []wizard.Input{
				{ID: "ndisNumber", Label: "NDIS number"},
				{ID: "planStart", Label: "Plan start", Kind: wizard.KindDate, Placeholder: v.DateLayout},
				{ID: "planEnd", Label: "Plan end", Kind: wizard.KindDate, Placeholder: v.DateLayout},
			},
			Validator: v.NewSchema(
				v.NewField("ndisNumber", v.Required, v.Pattern(ndisPattern, "must be 9 digits")),
				v.NewField("planStart", v.Required, v.Date(v.DateLayout)),
				v.NewField("planEnd", v.Required, v.Date(v.DateLayout), v.After("planStart", v.DateLayout)),
			),
		},
		wizard.Step{
			ID:       "review",
			Title:    "Review",
			Order:    3,
			Terminal: true,
		},
	))
	return def.WithRoles(wizard.RoleAdmin, wizard.RoleCoordinator)
}
