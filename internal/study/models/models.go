package models

import (
	"slices"
	"strings"
	"time"

	id "steward/pkg/domain"
	dErrors "steward/pkg/domain-errors"
)

// Status is a study's approval status. It changes only through the workflow.
type Status string

const (
	StatusIncomplete Status = "Incomplete"
	StatusPending    Status = "Pending"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown approval status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusIncomplete, StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// Declarations are the risk-relevant answers on a study. Nil means not
// answered and reads as false.
type Declarations struct {
	InvolvesDataProcessingOutsideEEA *bool `json:"involves_data_processing_outside_eea,omitempty"`
	RequiresDBS                      *bool `json:"requires_dbs,omitempty"`
	RequiresDSPT                     *bool `json:"requires_dspt,omitempty"`
	InvolvesThirdParty               *bool `json:"involves_third_party,omitempty"`
	InvolvesMNCA                     *bool `json:"involves_mnca,omitempty"`
	InvolvesNHSEngland               *bool `json:"involves_nhs_england,omitempty"`
	InvolvesCAG                      *bool `json:"involves_cag,omitempty"`

	InvolvesEthicsApproval     *bool `json:"involves_ethics_approval,omitempty"`
	InvolvesHRAApproval        *bool `json:"involves_hra_approval,omitempty"`
	IsUCLSponsored             *bool `json:"is_ucl_sponsored,omitempty"`
	InvolvesExternalUsers      *bool `json:"involves_external_users,omitempty"`
	InvolvesParticipantConsent *bool `json:"involves_participant_consent,omitempty"`
	InvolvesIndirectCollection *bool `json:"involves_indirect_collection,omitempty"`
	RegisteredWithDPO          *bool `json:"registered_with_dpo,omitempty"`
}

// Is dereferences an optional declaration.
func Is(b *bool) bool {
	return b != nil && *b
}

// Bool is a helper for building declarations.
func Bool(v bool) *bool {
	return &v
}

// Study is the governed research record.
type Study struct {
	ID                         id.StudyID
	Title                      string
	Description                string
	OwnerID                    id.UserID
	AdminUsernames             []string
	DataControllerOrganisation string
	Declarations               Declarations
	ApprovalStatus             Status
	// Feedback is set by reviewers and only meaningful once the study has
	// left Incomplete.
	Feedback  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revision identifies one stored state of a study. Every write moves
// UpdatedAt, so a matching revision means nothing changed since it was read.
type Revision struct {
	Status    Status
	UpdatedAt time.Time
}

// Revision returns the study's current revision.
func (s *Study) Revision() Revision {
	return Revision{Status: s.ApprovalStatus, UpdatedAt: s.UpdatedAt}
}

// Matches compares at microsecond precision, the resolution of stored
// timestamps.
func (r Revision) Matches(s *Study) bool {
	return s.ApprovalStatus == r.Status &&
		s.UpdatedAt.Truncate(time.Microsecond).Equal(r.UpdatedAt.Truncate(time.Microsecond))
}

// Content is the owner-editable part of a study.
type Content struct {
	Title                      string
	Description                string
	AdminUsernames             []string
	DataControllerOrganisation string
	Declarations               Declarations
}

const (
	maxTitleLength       = 256
	maxDescriptionLength = 16 * 1024
	maxAdmins            = 50
)

// Normalize trims fields, dedupes admins and validates the result.
func (c Content) Normalize(ownerUsername string) (Content, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.DataControllerOrganisation = strings.TrimSpace(c.DataControllerOrganisation)
	c.AdminUsernames = normalizeAdmins(c.AdminUsernames, ownerUsername)

	switch {
	case c.Title == "":
		return Content{}, dErrors.New(dErrors.CodeValidation, "title is required")
	case len(c.Title) > maxTitleLength:
		return Content{}, dErrors.New(dErrors.CodeValidation, "title is too long")
	case len(c.Description) > maxDescriptionLength:
		return Content{}, dErrors.New(dErrors.CodeValidation, "description is too long")
	case len(c.AdminUsernames) > maxAdmins:
		return Content{}, dErrors.New(dErrors.CodeValidation, "too many study admins")
	}
	return c, nil
}

// normalizeAdmins trims usernames and drops blanks, repeats and the owner,
// keeping first-seen order.
func normalizeAdmins(usernames []string, ownerUsername string) []string {
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		u = strings.TrimSpace(u)
		if u == "" || u == ownerUsername || slices.Contains(out, u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// NewStudy creates an Incomplete study owned by ownerID.
func NewStudy(studyID id.StudyID, ownerID id.UserID, ownerUsername string, content Content, now time.Time) (*Study, error) {
	c, err := content.Normalize(ownerUsername)
	if err != nil {
		return nil, err
	}
	return &Study{
		ID:                         studyID,
		Title:                      c.Title,
		Description:                c.Description,
		OwnerID:                    ownerID,
		AdminUsernames:             c.AdminUsernames,
		DataControllerOrganisation: c.DataControllerOrganisation,
		Declarations:               c.Declarations,
		ApprovalStatus:             StatusIncomplete,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}, nil
}

// ApplyContent replaces the editable fields.
func (s *Study) ApplyContent(c Content) {
	s.Title = c.Title
	s.Description = c.Description
	s.AdminUsernames = c.AdminUsernames
	s.DataControllerOrganisation = c.DataControllerOrganisation
	s.Declarations = c.Declarations
}

// Content returns the editable fields.
func (s *Study) Content() Content {
	return Content{
		Title:                      s.Title,
		Description:                s.Description,
		AdminUsernames:             slices.Clone(s.AdminUsernames),
		DataControllerOrganisation: s.DataControllerOrganisation,
		Declarations:               s.Declarations,
	}
}

func (s *Study) IsOwner(userID id.UserID) bool {
	return s.OwnerID == userID
}

func (s *Study) IsStudyAdmin(username string) bool {
	return username != "" && slices.Contains(s.AdminUsernames, username)
}

// CanManage reports whether actor is the owner or an additional admin.
func (s *Study) CanManage(actor id.Actor) bool {
	return s.IsOwner(actor.UserID) || s.IsStudyAdmin(actor.Username)
}

// Clone returns a deep copy.
func (s *Study) Clone() *Study {
	c := *s
	c.AdminUsernames = slices.Clone(s.AdminUsernames)
	if s.Feedback != nil {
		f := *s.Feedback
		c.Feedback = &f
	}
	c.Declarations = s.Declarations.clone()
	return &c
}

func (d Declarations) clone() Declarations {
	cp := func(b *bool) *bool {
		if b == nil {
			return nil
		}
		v := *b
		return &v
	}
	return Declarations{
		InvolvesDataProcessingOutsideEEA: cp(d.InvolvesDataProcessingOutsideEEA),
		RequiresDBS:                      cp(d.RequiresDBS),
		RequiresDSPT:                     cp(d.RequiresDSPT),
		InvolvesThirdParty:               cp(d.InvolvesThirdParty),
		InvolvesMNCA:                     cp(d.InvolvesMNCA),
		InvolvesNHSEngland:               cp(d.InvolvesNHSEngland),
		InvolvesCAG:                      cp(d.InvolvesCAG),
		InvolvesEthicsApproval:           cp(d.InvolvesEthicsApproval),
		InvolvesHRAApproval:              cp(d.InvolvesHRAApproval),
		IsUCLSponsored:                   cp(d.IsUCLSponsored),
		InvolvesExternalUsers:            cp(d.InvolvesExternalUsers),
		InvolvesParticipantConsent:       cp(d.InvolvesParticipantConsent),
		InvolvesIndirectCollection:       cp(d.InvolvesIndirectCollection),
		RegisteredWithDPO:                cp(d.RegisteredWithDPO),
	}
}

// Asset is a child of a study. Only its existence matters here.
type Asset struct {
	ID        id.AssetID
	StudyID   id.StudyID
	Name      string
	CreatedAt time.Time
}

func NewAsset(assetID id.AssetID, studyID id.StudyID, name string, now time.Time) (*Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "asset name is required")
	}
	if len(name) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "asset name is too long")
	}
	return &Asset{ID: assetID, StudyID: studyID, Name: name, CreatedAt: now}, nil
}

// ListFilter narrows study listings. Zero fields do not filter.
type ListFilter struct {
	Status *Status
	// VisibleTo restricts results to studies owned or administered by the
	// given user.
	VisibleTo *Visibility
	Limit     int
	Offset    int
}

type Visibility struct {
	UserID   id.UserID
	Username string
}
