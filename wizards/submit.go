package wizards

import (
	"fmt"
	"strings"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/api"
	v "github.com/goliatone/go-wizard/validation"
)

// Address is the nested postal address.
type Address struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

// Contact is an emergency contact.
type Contact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// TenderRequest is the POST /tenders body.
type TenderRequest struct {
	OrganizationID   string   `json:"organizationId,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	HoursPerWeek     float64  `json:"hoursPerWeek"`
	Skills           []string `json:"skills"`
	GenderPreference string   `json:"genderPreference"`
	Budget           *float64 `json:"budget,omitempty"`
	DraftID          string   `json:"draftId,omitempty"`
}

// ParticipantSetupRequest is the POST /participants/setup body.
type ParticipantSetupRequest struct {
	UserID           string  `json:"userId,omitempty"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	DateOfBirth      string  `json:"dateOfBirth"`
	Phone            string  `json:"phone"`
	Address          Address `json:"address"`
	EmergencyContact Contact `json:"emergencyContact"`
	NDISNumber       string  `json:"ndisNumber"`
	PlanManagement   string  `json:"planManagement"`
	PlanManagerEmail string  `json:"planManagerEmail,omitempty"`
	Consent          bool    `json:"consent"`
}

// JobApplicationRequest is the POST /jobs/{jobId}/applications body.
type JobApplicationRequest struct {
	SupportWorkerID string   `json:"supportWorkerId,omitempty"`
	AvailableDays   []string `json:"availableDays"`
	StartDate       string   `json:"startDate"`
	CoverLetter     string   `json:"coverLetter"`
	Declaration     bool     `json:"declaration"`
}

// CreateParticipantRequest is the POST /participants body.
type CreateParticipantRequest struct {
	OrganizationID string `json:"organizationId,omitempty"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	NDISNumber     string `json:"ndisNumber"`
	PlanStart      string `json:"planStart"`
	PlanEnd        string `json:"planEnd"`
}

// SupportWorkerSetupRequest is the POST /support-workers/setup body.
type SupportWorkerSetupRequest struct {
	UserID            string   `json:"userId,omitempty"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Phone             string   `json:"phone"`
	Qualifications    []string `json:"qualifications"`
	YearsExperience   float64  `json:"yearsExperience"`
	WWCCNumber        string   `json:"wwccNumber"`
	PoliceCheckExpiry string   `json:"policeCheckExpiry"`
	Banking           Banking  `json:"banking"`
}

// Banking holds payout details.
type Banking struct {
	ABN           string `json:"abn"`
	BSB           string `json:"bsb"`
	AccountNumber string `json:"accountNumber"`
}

// IncidentRequest is the POST /incidents body.
type IncidentRequest struct {
	ReportedBy    string   `json:"reportedBy,omitempty"`
	Title         string   `json:"title"`
	OccurredAt    string   `json:"occurredAt"`
	Location      string   `json:"location"`
	Description   string   `json:"description,omitempty"`
	ParticipantID string   `json:"participantId"`
	Witnesses     []string `json:"witnesses"`
	Severity      string   `json:"severity"`
	ActionsTaken  string   `json:"actionsTaken"`
}

type route struct {
	path    api.PathFunc
	reshape api.Reshape
}

var routes = map[string]route{
	Tender:             {api.StaticPath("/tenders"), TenderBody},
	ParticipantSetup:   {api.StaticPath("/participants/setup"), ParticipantSetupBody},
	ApplyJob:           {api.ParamPath("/jobs/{jobId}/applications"), JobApplicationBody},
	CreateParticipant:  {api.StaticPath("/participants"), CreateParticipantBody},
	SupportWorkerSetup: {api.StaticPath("/support-workers/setup"), SupportWorkerSetupBody},
	Incident:           {api.StaticPath("/incidents"), IncidentBody},
}

// Submitters maps every catalog wizard to its backend endpoint.
func Submitters(client *api.Client) map[string]wizard.Submitter {
	out := make(map[string]wizard.Submitter, len(routes))
	for id, r := range routes {
		out[id] = api.NewSubmitter(client, r.path, r.reshape)
	}
	return out
}

// Body reshapes the form data of a catalog wizard into its request DTO.
func Body(sub wizard.Submission) (any, error) {
	r, ok := routes[sub.WizardID]
	if !ok {
		return nil, fmt.Errorf("no request shape for wizard %q", sub.WizardID)
	}
	return r.reshape(sub)
}

// Path returns the endpoint a catalog wizard submits to.
func Path(sub wizard.Submission) (string, error) {
	r, ok := routes[sub.WizardID]
	if !ok {
		return "", fmt.Errorf("no endpoint for wizard %q", sub.WizardID)
	}
	return r.path(sub)
}

func TenderBody(sub wizard.Submission) (any, error) {
	d := sub.Data
	req := TenderRequest{
		OrganizationID:   sub.Actor.OrganizationID,
		Title:            str(d, "title"),
		Description:      str(d, "description"),
		Category:         str(d, "category"),
		StartDate:        str(d, "startDate"),
		EndDate:          str(d, "endDate"),
		HoursPerWeek:     num(d, "hoursPerWeek"),
		Skills:           list(d, "skills"),
		GenderPreference: str(d, "genderPreference"),
		DraftID:          sub.EntityID,
	}
	if req.GenderPreference == "" {
		req.GenderPreference = "any"
	}
	if val, ok := v.Lookup(d, "budget"); ok && !v.IsMissing(val) {
		b := num(d, "budget")
		req.Budget = &b
	}
	return req, nil
}

func ParticipantSetupBody(sub wizard.Submission) (any, error) {
	d := sub.Data
	req := ParticipantSetupRequest{
		UserID:      sub.Actor.ID,
		FirstName:   str(d, "firstName"),
		LastName:    str(d, "lastName"),
		DateOfBirth: str(d, "dateOfBirth"),
		Phone:       str(d, "phone"),
		Address: Address{
			Street:   str(d, "address.street"),
			Suburb:   str(d, "address.suburb"),
			State:    str(d, "address.state"),
			Postcode: str(d, "address.postcode"),
		},
		EmergencyContact: Contact{
			Name:         str(d, "emergencyContact.name"),
			Phone:        str(d, "emergencyContact.phone"),
			Relationship: str(d, "emergencyContact.relationship"),
		},
		NDISNumber:     str(d, "ndisNumber"),
		PlanManagement: str(d, "planManagement"),
		Consent:        flag(d, "consent"),
	}
	if req.PlanManagement == "plan" {
		req.PlanManagerEmail = str(d, "planManagerEmail")
	}
	return req, nil
}

func JobApplicationBody(sub wizard.Submission) (any, error) {
	d := sub.Data
	return JobApplicationRequest{
		SupportWorkerID: sub.Actor.ID,
		AvailableDays:   list(d, "availableDays"),
		StartDate:       str(d, "startDate"),
		CoverLetter:     str(d, "coverLetter"),
		Declaration:     flag(d, "declaration"),
	}, nil
}

func CreateParticipantBody(sub wizard.Submission) (any, error) {
	d := sub.Data
	return CreateParticipantRequest{
		OrganizationID: sub.Actor.OrganizationID,
		FirstName:      str(d, "firstName"),
		LastName:       str(d, "lastName"),
		Email:          strings.ToLower(str(d, "email")),
		NDISNumber:     str(d, "ndisNumber"),
		PlanStart:      str(d, "planStart"),
		PlanEnd:        str(d, "planEnd"),
	}, nil
}

func SupportWorkerSetupBody(sub wizard.Submission) (any, error) {
	d := sub.Data
	return SupportWorkerSetupRequest{
		UserID:            sub.Actor.ID,
		FirstName:         str(d, "firstName"),
		LastName:          str(d, "lastName"),
		Phone:             str(d, "phone"),
		Qualifications:    list(d, "qualifications"),
		YearsExperience:   num(d, "yearsExperience"),
		WWCCNumber:        str(d, "wwccNumber"),
		PoliceCheckExpiry: str(d, "policeCheckExpiry"),
		Banking: Banking{
			ABN:           str(d, "abn"),
			BSB:           strings.ReplaceAll(str(d, "bsb"), "-", ""),
			AccountNumber: str(d, "accountNumber"),
		},
	}, nil
}

func IncidentBody(sub wizard.Submission) (any, error) {
	d := sub.Data
	return IncidentRequest{
		ReportedBy:    sub.Actor.ID,
		Title:         str(d, "title"),
		OccurredAt:    str(d, "occurredAt"),
		Location:      str(d, "location"),
		Description:   str(d, "description"),
		ParticipantID: str(d, "participantId"),
		Witnesses:     list(d, "witnesses"),
		Severity:      str(d, "severity"),
		ActionsTaken:  str(d, "actionsTaken"),
	}, nil
}

func str(d map[string]any, path string) string {
	val, ok := v.Lookup(d, path)
	if !ok || val == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(val))
}

func num(d map[string]any, path string) float64 {
	val, ok := v.Lookup(d, path)
	if !ok {
		return 0
	}
	f, err := v.ToNumber(val)
	if err != nil {
		return 0
	}
	return f
}

func list(d map[string]any, path string) []string {
	val, _ := v.Lookup(d, path)
	out, ok := v.ToStrings(val)
	if !ok || out == nil {
		return []string{}
	}
	return out
}

func flag(d map[string]any, path string) bool {
	val, _ := v.Lookup(d, path)
	switch b := val.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "on", "1", "y":
			return true
		}
	}
	return false
}
