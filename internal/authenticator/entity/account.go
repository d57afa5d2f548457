package entity

import (
	"strings"
)

const (
	// MaxDuplicateNames bounds the "name(k)" variants of an issuer-less account.
	MaxDuplicateNames = 20

	// LegacyGoogleAccountName is the name of the pre-issuer Google corp account.
	// It cannot be renamed and is always treated as a Google account.
	LegacyGoogleAccountName = "Google Internal 2Factor"

	// GoogleIssuer is the issuer used by Google accounts.
	GoogleIssuer = "Google"

	// GoogleCorpDomain is the email suffix of Google corp device accounts.
	GoogleCorpDomain = "@google.com"
)

// GoogleEmailSuffixes are matched against legacy record names.
var GoogleEmailSuffixes = []string{"@gmail.com", "@googlemail.com", "@google.com"}

// AutoUpgradeIssuers get assigned to "<issuer>:name" records when the
// issuer column is first introduced.
var AutoUpgradeIssuers = []string{"Google", "Dropbox"}

// AccountIndex identifies an account by its literal (name, issuer) pair.
// An empty Issuer means the account has no issuer.
type AccountIndex struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
}

// NewAccountIndex returns an index with a trimmed issuer; a blank issuer is absent.
func NewAccountIndex(name, issuer string) AccountIndex {
	return AccountIndex{Name: name, Issuer: strings.TrimSpace(issuer)}
}

// HasIssuer reports whether the issuer is present.
func (a AccountIndex) HasIssuer() bool {
	return a.Issuer != ""
}

func (a AccountIndex) issuerPrefix() string {
	return a.Issuer + ":"
}

// StrippedName is the name without a leading "issuer:" prefix, trimmed.
func (a AccountIndex) StrippedName() string {
	if a.HasIssuer() && strings.HasPrefix(a.Name, a.issuerPrefix()) {
		return strings.TrimSpace(a.Name[len(a.issuerPrefix()):])
	}
	return strings.TrimSpace(a.Name)
}

// String returns the display name, "issuer:name" unless the name already
// carries the prefix.
func (a AccountIndex) String() string {
	if !a.HasIssuer() || strings.HasPrefix(a.Name, a.issuerPrefix()) {
		return a.Name
	}
	return a.issuerPrefix() + a.Name
}

// IsLegacyGoogle reports whether a is the protected legacy Google account.
func (a AccountIndex) IsLegacyGoogle() bool {
	return a.Name == LegacyGoogleAccountName && !a.HasIssuer()
}

// AccountRecord is one stored credential.
type AccountRecord struct {
	ID           int64
	Name         string
	Issuer       string
	Secret       string
	Type         OTPType
	Counter      int32
	Provider     Provider
	OriginalName *string
}

// Index returns the identity of the record.
func (r AccountRecord) Index() AccountIndex {
	return AccountIndex{Name: r.Name, Issuer: r.Issuer}
}

// NewAccount is the input of an add.
type NewAccount struct {
	Name    string
	Secret  string
	Type    OTPType
	Counter int32
	// GoogleHint is nil when the caller does not know the provider.
	GoogleHint *bool
	Issuer     string
}

// Index returns the requested identity.
func (n NewAccount) Index() AccountIndex {
	return NewAccountIndex(n.Name, n.Issuer)
}

// AccountPatch is a partial update; nil fields are left unchanged.
type AccountPatch struct {
	Secret     *string
	Type       *OTPType
	Counter    *int32
	GoogleHint *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Secret == nil && p.Type == nil && p.Counter == nil && p.GoogleHint == nil
}

// AccountInfo is the listing view of an account.
type AccountInfo struct {
	Index        AccountIndex
	DisplayName  string
	StrippedName string
	Type         OTPType
	IsGoogle     bool
}
