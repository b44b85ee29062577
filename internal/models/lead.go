package models

import "time"

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusOpportunity LeadStatus = "opportunity"
	LeadStatusCustomer    LeadStatus = "customer"
	LeadStatusLost        LeadStatus = "lost"
)

var LeadStatuses = []LeadStatus{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusOpportunity, LeadStatusCustomer, LeadStatusLost,
}

// LeadTier is the follow-up priority. A is hottest.
type LeadTier string

const (
	LeadTierA LeadTier = "A"
	LeadTierB LeadTier = "B"
	LeadTierC LeadTier = "C"
)

var LeadTiers = []LeadTier{LeadTierA, LeadTierB, LeadTierC}

type FormType string

const (
	FormTypeGuide      FormType = "guide"
	FormTypeAudit      FormType = "audit"
	FormTypeAssessment FormType = "assessment"
	FormTypeContact    FormType = "contact"
	FormTypeNewsletter FormType = "newsletter"
)

var FormTypes = []FormType{
	FormTypeGuide, FormTypeAudit, FormTypeAssessment, FormTypeContact, FormTypeNewsletter,
}

type ContactChannel string

const (
	ChannelLinkedIn ContactChannel = "linkedin"
	ChannelEmail    ContactChannel = "email"
	ChannelPhone    ContactChannel = "phone"
	ChannelOther    ContactChannel = "other"
)

var ContactChannels = []ContactChannel{ChannelLinkedIn, ChannelEmail, ChannelPhone, ChannelOther}

type LeadNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContactRecord struct {
	ID          string         `json:"id"`
	Channel     ContactChannel `json:"channel"`
	ContactedAt time.Time      `json:"contactedAt"`
	Campaign    string         `json:"campaign,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

type Lead struct {
	LeadID    string `json:"leadId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message,omitempty"`

	FormType      FormType `json:"formType"`
	ResourceSlug  string   `json:"resourceSlug,omitempty"`
	ResourceTitle string   `json:"resourceTitle,omitempty"`
	SourcePage    string   `json:"sourcePage"`

	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`

	Status         LeadStatus      `json:"status"`
	Tier           LeadTier        `json:"tier,omitempty"`
	Industry       string          `json:"industry,omitempty"`
	Notes          []LeadNote      `json:"notes,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	ContactHistory []ContactRecord `json:"contactHistory,omitempty"`
	AssignedTo     string          `json:"assignedTo,omitempty"`

	AssessmentScore *int   `json:"assessmentScore,omitempty"`
	AssessmentTier  string `json:"assessmentTier,omitempty"`

	CRMContactID string `json:"crmContactId,omitempty"`

	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastActivityAt *time.Time `json:"lastActivityAt,omitempty"`
}

// FullName is "First Last" with empty parts dropped.
func (l *Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// CreateLeadInput is a form submission.
type CreateLeadInput struct {
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Email           string   `json:"email"`
	Company         string   `json:"company,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Message         string   `json:"message,omitempty"`
	FormType        FormType `json:"formType"`
	ResourceSlug    string   `json:"resourceSlug,omitempty"`
	ResourceTitle   string   `json:"resourceTitle,omitempty"`
	SourcePage      string   `json:"sourcePage"`
	UTMSource       string   `json:"utmSource,omitempty"`
	UTMMedium       string   `json:"utmMedium,omitempty"`
	UTMCampaign     string   `json:"utmCampaign,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	AssessmentScore *int     `json:"assessmentScore,omitempty"`
	AssessmentTier  string   `json:"assessmentTier,omitempty"`
}

type LeadSortField string

const (
	SortByCreatedAt      LeadSortField = "createdAt"
	SortByLastActivityAt LeadSortField = "lastActivityAt"
)

type LeadQueryParams struct {
	Status    LeadStatus    `json:"status,omitempty"`
	Tier      LeadTier      `json:"tier,omitempty"`
	Industry  string        `json:"industry,omitempty"`
	FormType  FormType      `json:"formType,omitempty"`
	Search    string        `json:"search,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
	SortBy    LeadSortField `json:"sortBy,omitempty"`
	SortOrder string        `json:"sortOrder,omitempty"`
}

type LeadQueryResult struct {
	Leads      []Lead `json:"leads"`
	TotalCount int    `json:"totalCount"`
}

type LeadStats struct {
	TotalLeads int                `json:"totalLeads"`
	ByStatus   map[LeadStatus]int `json:"byStatus"`
	ByTier     map[string]int     `json:"byTier"`
	ByIndustry map[string]int     `json:"byIndustry"`
	ByFormType map[FormType]int   `json:"byFormType"`
}
