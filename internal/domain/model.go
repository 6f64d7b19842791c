package domain

import (
	"fmt"
	"strings"
	"time"
)

// Core domain models used internally. HTTP request/response shapes live in
// the http adapter; keep these decoupled where helpful.

// NotAvailable is the sentinel stored for optional fields the operator (or
// the extractor) could not fill.
const NotAvailable = "N/A"

// DontKnow is the literal answer stored when the respondent declines a
// question. Score questions store it as 0.
const DontKnow = "Nu știu/Nu răspund"

// CompanyRecord is one company as extracted from a pasted Targetare profile
// or returned by the registry lookup. CUI and Name are always non-empty on a
// successful extraction; Locality, County and CAENCode fall back to "N/A".
type CompanyRecord struct {
	CUI           string  `json:"cui"`
	Name          string  `json:"nume"`
	Address       string  `json:"adresa"`
	Locality      string  `json:"localitate"`
	County        string  `json:"judet"`
	CAENCode      string  `json:"cod_caen"`
	Phone         *string `json:"telefon,omitempty"`
	Administrator *string `json:"administrator,omitempty"`
}

// Schema identifies which questionnaire a response was collected with.
type Schema string

const (
	SchemaV1 Schema = "v1" // six-question original
	SchemaV2 Schema = "v2" // eleven-question revision
)

// Termination reasons recorded when an interview ends early. The column is
// an open string: later questionnaire revisions add reasons, so these are
// matched as literals, never as a closed enum. An empty reason means the
// interview ran to completion.
const (
	ReasonNoAnswer    = "Nu a răspuns la telefon"
	ReasonRefused     = "A răspuns, nu a dorit să vorbească"
	ReasonAdminAbsent = "Administrator absent la telefon"
	ReasonAbandoned   = "Apel închis / abandonat de respondent"
	ReasonIneligible  = "Firmă neeligibilă"
)

// Response is one survey attempt, completed or terminated. Shared fields sit
// on the struct; the per-schema answers hang off the V1/V2 payload matching
// the Schema tag. Rows are immutable once stored.
type Response struct {
	ID              int64
	CUI             string
	CompanyName     string
	Locality        string
	County          string
	CAENCode        string
	IsAdministrator bool
	Operator        string
	Phone           *string
	Administrator   *string
	EndReason       string // empty = completed interview
	CreatedAt       time.Time

	Schema Schema
	V1     *AnswersV1
	V2     *AnswersV2
}

// AnswersV1 holds the six-question payload. Score fields use 0 for
// "don't know / no answer", 1-5 otherwise.
type AnswersV1 struct {
	ExpenseShare     string // procent_cheltuieli_contabil
	ImpedimentScore  int    // impediment_contabil_score
	JustifiedScore   int    // justificare_obligativitate_score
	SelfCapableScore int    // capabil_contabilitate_proprie_score
	CostInfluence    string // influenta_costuri_contabilitate; a 1-5 score or the don't-know literal, stored as text
	MonthlySum       string // suma_lunara_contabilitate
}

// AnswersV2 holds the eleven-question payload. CapableScore is -1 when the
// question was never reached, 0 for "don't know", 1-5 otherwise.
type AnswersV2 struct {
	ExpenseShare        string  // q2
	AccountantRelation  string  // q3
	ObligationJustified string  // q4: da|nu|nu_stiu
	ObligationMotiveIDs []int64 // q4 multi-select
	CapableScore        int     // q5
	CapableMotive       string  // q5 free text
	AutomatedMotive     string  // q6
	MonthlySum          string  // q7
	WhyAccountant       string  // q8
	WouldDropAccountant string  // q9: da|nu|nu_stiu
	DropMotiveIDs       []int64 // q9 multi-select
	AgeBand             string  // q10
	Education           string  // q11
}

// Completed reports whether the interview reached the end of the
// questionnaire, i.e. no termination reason was recorded.
func (r *Response) Completed() bool {
	return strings.TrimSpace(r.EndReason) == ""
}

// Validate ensures the shared mandatory fields are present and that exactly
// one answer payload matches the schema tag.
func (r *Response) Validate() error {
	if r.CUI == "" {
		return fmt.Errorf("cui is required")
	}
	if r.CompanyName == "" {
		return fmt.Errorf("company name is required")
	}
	if r.Operator == "" {
		return fmt.Errorf("operator is required")
	}
	switch r.Schema {
	case SchemaV1:
		if r.V1 == nil || r.V2 != nil {
			return fmt.Errorf("schema %s requires exactly the v1 payload", r.Schema)
		}
	case SchemaV2:
		if r.V2 == nil || r.V1 != nil {
			return fmt.Errorf("schema %s requires exactly the v2 payload", r.Schema)
		}
	default:
		return fmt.Errorf("invalid schema: %q", r.Schema)
	}
	return nil
}

// MotiveCategory groups the selectable motive options of the v2 form.
type MotiveCategory string

const (
	MotiveObligation MotiveCategory = "obligatie_intemeiata" // q4 motives
	MotiveDrop       MotiveCategory = "renunta_contabil"     // q9 motives
)

// ValidateMotiveCategory checks the category against the known set.
func ValidateMotiveCategory(c MotiveCategory) error {
	switch c {
	case MotiveObligation, MotiveDrop:
		return nil
	default:
		return fmt.Errorf("invalid motive category: %q", c)
	}
}

// MotiveOption is one selectable motive. Operators may add custom options
// during an interview; labels are unique per category.
type MotiveOption struct {
	ID        int64          `json:"id"`
	Category  MotiveCategory `json:"category"`
	Label     string         `json:"label"`
	IsCustom  bool           `json:"is_custom"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate ensures required option fields are present and the category is known.
func (o *MotiveOption) Validate() error {
	if strings.TrimSpace(o.Label) == "" {
		return fmt.Errorf("label is required")
	}
	return ValidateMotiveCategory(o.Category)
}
