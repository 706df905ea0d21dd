package app

import "knowledge-governance/internal/model"

// Actor is the authenticated caller of a governance operation.
type Actor struct {
	Username   string
	Role       model.Role
	Department string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// ApprovesFor reports whether a may approve on behalf of department.
func (a Actor) ApprovesFor(department string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == model.RoleApprover && a.Department != "" && a.Department == department
}

func (a Actor) ownsDocument(doc *model.Document) bool {
	return a.Username != "" && a.Username == doc.Metadata.Owner
}

// mayGovern covers activation, deprecation and archival of doc.
func (a Actor) mayGovern(doc *model.Document) bool {
	return a.ownsDocument(doc) || a.ApprovesFor(doc.Department)
}
