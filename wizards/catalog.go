// Package wizards holds the concrete wizard definitions used across the
// care-coordination app: tender creation, onboarding, job applications,
// participant creation and incident reporting.
package wizards

import (
	"regexp"
	"sort"

	wizard "github.com/goliatone/go-wizard"
)

// Wizard ids.
const (
	Tender             = "tender"
	ParticipantSetup   = "participant_setup"
	ApplyJob           = "apply_job"
	CreateParticipant  = "create_participant"
	SupportWorkerSetup = "support_worker_setup"
	Incident           = "incident"
)

var (
	phonePattern    = regexp.MustCompile(`^(\+?61|0)[2-478]( ?\d){8}$`)
	postcodePattern = regexp.MustCompile(`^\d{4}$`)
	ndisPattern     = regexp.MustCompile(`^\d{9}$`)
	abnPattern      = regexp.MustCompile(`^\d{11}$`)
	bsbPattern      = regexp.MustCompile(`^\d{3}-?\d{3}$`)
	accountPattern  = regexp.MustCompile(`^\d{6,10}$`)
)

// ServiceCategories are the support categories a tender may target.
var ServiceCategories = []string{
	"daily_living",
	"community_access",
	"personal_care",
	"transport",
	"therapy",
	"respite",
}

// States are the Australian states and territories.
var States = []string{"ACT", "NSW", "NT", "QLD", "SA", "TAS", "VIC", "WA"}

// Weekdays are the day values accepted for availability.
var Weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Severities rank incidents.
var Severities = []string{"low", "medium", "high", "critical"}

var builders = map[string]func() *wizard.Definition{
	Tender:             TenderDefinition,
	ParticipantSetup:   ParticipantSetupDefinition,
	ApplyJob:           ApplyJobDefinition,
	CreateParticipant:  CreateParticipantDefinition,
	SupportWorkerSetup: SupportWorkerSetupDefinition,
	Incident:           IncidentDefinition,
}

// IDs lists the catalog ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(builders))
	for id := range builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Catalog returns every definition, sorted by id.
func Catalog() []*wizard.Definition {
	out := make([]*wizard.Definition, 0, len(builders))
	for _, id := range IDs() {
		out = append(out, builders[id]())
	}
	return out
}

// Lookup returns the definition for id.
func Lookup(id string) (*wizard.Definition, bool) {
	build, ok := builders[id]
	if !ok {
		return nil, false
	}
	return build(), true
}

func choices(values ...string) []wizard.Choice {
	out := make([]wizard.Choice, 0, len(values))
	for _, v := range values {
		out = append(out, wizard.Choice{Value: v})
	}
	return out
}
