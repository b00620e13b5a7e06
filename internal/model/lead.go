package model

// LeadStatus represents where a lead is in the extraction pipeline.
type LeadStatus string

const (
	LeadStatusSearching LeadStatus = "searching"
	LeadStatusCrawling  LeadStatus = "crawling"
	LeadStatusVerified  LeadStatus = "verified"
	LeadStatusGeneral   LeadStatus = "general"
	LeadStatusFailed    LeadStatus = "failed"
)

// IsTerminal returns true once the pipeline is done with the lead.
func (s LeadStatus) IsTerminal() bool {
	switch s {
	case LeadStatusVerified, LeadStatusGeneral, LeadStatusFailed:
		return true
	}
	return false
}

// Lead is one row of the results table.
type Lead struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Website       string     `json:"website" yaml:"website"`
	Address       string     `json:"address,omitempty" yaml:"address,omitempty"`
	InitialEmail  *string    `json:"initialEmail" yaml:"initial_email"`
	OwnerName     *string    `json:"ownerName" yaml:"owner_name"`
	VerifiedEmail *string    `json:"verifiedEmail" yaml:"verified_email"`
	Status        LeadStatus `json:"status" yaml:"status"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewLead creates a lead for a business at the start of its pipeline.
func NewLead(b Business) Lead {
	return Lead{
		ID:      b.ID,
		Name:    b.Name,
		Website: b.WebsiteURL,
		Address: b.Address,
		Status:  LeadStatusCrawling,
	}
}

// Classification is the deterministic outcome of post-processing an
// extraction result.
type Classification struct {
	Status        LeadStatus `json:"status"`
	VerifiedEmail *string    `json:"verifiedEmail"`
}

// Complete assigns the terminal state. A lead that is already terminal is
// left untouched and false is returned.
func (l *Lead) Complete(res ExtractionResult, c Classification, errMsg string) bool {
	if l.Status.IsTerminal() {
		return false
	}
	l.InitialEmail = res.Email
	l.OwnerName = res.OwnerName
	l.VerifiedEmail = c.VerifiedEmail
	l.Status = c.Status
	l.Error = errMsg
	return true
}

// Fail marks the lead failed with a diagnostic message.
func (l *Lead) Fail(errMsg string) bool {
	return l.Complete(ExtractionResult{}, Classification{Status: LeadStatusFailed}, errMsg)
}
