// Package model defines the core data types for kasboard.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source is the category of an income transaction. The string value is
// what gets written to transactions.csv.
type Source string

const (
	SourceMemberDues  Source = "Kas Anggota"
	SourceProposal    Source = "Proposal"
	SourceSponsorship Source = "Sponsor/Media"
)

// Sources lists every known source in canonical display order.
var Sources = []Source{SourceMemberDues, SourceProposal, SourceSponsorship}

// ParseSource resolves a stored value or CLI alias to a Source.
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kas anggota", "dues", "member_dues", "kas":
		return SourceMemberDues, true
	case "proposal":
		return SourceProposal, true
	case "sponsor/media", "sponsor", "sponsorship", "media":
		return SourceSponsorship, true
	}
	return "", false
}

// RequiresMember reports whether transactions of this source must name a
// member or sponsor.
func (s Source) RequiresMember() bool {
	return s == SourceMemberDues || s == SourceSponsorship
}

// Index returns the position of s in Sources, or len(Sources) if unknown.
func (s Source) Index() int {
	for i, src := range Sources {
		if src == s {
			return i
		}
	}
	return len(Sources)
}

// Transaction is a single income record.
type Transaction struct {
	Source      Source
	Amount      decimal.Decimal
	Date        time.Time // UTC
	Description string
	Member      string // "<name> - <position>" for dues, sponsor name, or "-"
}

// ProposalPlaceholder is stored in Member for proposal income.
const ProposalPlaceholder = "-"

// MemberSeparator joins a member's name and position in Transaction.Member.
const MemberSeparator = " - "

// SplitMember decomposes a transaction member field into name and role.
// Without a separator the whole string is the name and the role is empty.
func SplitMember(member string) (name, role string) {
	name, role, found := strings.Cut(member, MemberSeparator)
	if !found {
		return member, ""
	}
	return name, role
}

// Position is a member's title within the organization.
type Position string

// Positions is the fixed set of member titles.
var Positions = []Position{
	"Ketua",
	"Wakil Ketua",
	"Sekretaris",
	"Bendahara",
	"Koordinator",
	"Kepala Dinas",
	"Wakil Kepala Dinas",
	"Anggota",
}

// DefaultPosition is used when a member is added without a title.
const DefaultPosition Position = "Anggota"

// ValidPosition reports whether p is one of Positions.
func ValidPosition(p Position) bool {
	for _, known := range Positions {
		if known == p {
			return true
		}
	}
	return false
}

// Member is one entry in the organization roster.
type Member struct {
	Name     string
	Position Position
	Contact  string
}

// Label returns the "name - position" composite used by dues transactions.
func (m Member) Label() string {
	return m.Name + MemberSeparator + string(m.Position)
}
