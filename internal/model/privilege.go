package model

import "strings"

// Privilege is a permission code carried in operator tokens
type Privilege struct {
	Code string `json:"code"` // e.g., "good:create"
	Name string `json:"name"` // e.g., "Create Good"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Goods
	{Code: "good:view", Name: "View Good"},
	{Code: "good:create", Name: "Create Good"},
	{Code: "good:update", Name: "Update Good"},
	{Code: "good:delete", Name: "Delete Good"},
	// Hunters and merchants
	{Code: "party:view", Name: "View Party"},
	{Code: "party:create", Name: "Create Party"},
	{Code: "party:update", Name: "Update Party"},
	{Code: "party:delete", Name: "Delete Party"},
	// Transactions
	{Code: "transaction:view", Name: "View Transaction"},
	{Code: "transaction:create", Name: "Create Transaction"},
	{Code: "transaction:update", Name: "Update Transaction"},
	{Code: "transaction:delete", Name: "Delete Transaction"},
	// Reports
	{Code: "report:view", Name: "View Reports"},
}

// PrivilegeCodes returns the codes of DefaultPrivileges.
func PrivilegeCodes() []string {
	codes := make([]string, 0, len(DefaultPrivileges))
	for _, p := range DefaultPrivileges {
		codes = append(codes, p.Code)
	}
	return codes
}

// ReadOnlyPrivilegeCodes returns only the ":view" codes.
func ReadOnlyPrivilegeCodes() []string {
	var codes []string
	for _, p := range DefaultPrivileges {
		if strings.HasSuffix(p.Code, ":view") {
			codes = append(codes, p.Code)
		}
	}
	return codes
}
