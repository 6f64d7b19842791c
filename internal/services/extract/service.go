package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"sondaj/internal/domain"
)

// Extractor for pasted Targetare.ro profile pages. Pure over its input: one
// text blob in, one CompanyRecord or ErrNotFound out. Each field is an
// explicitly ordered list of pattern attempts; the first hit wins and the
// attempts never combine.

// ErrNotFound is the single failure mode: the two mandatory fields (CUI and
// company name) could not both be located. Malformed or garbage input maps
// here too; no partial record is ever returned as success.
var ErrNotFound = errors.New("no company record in text")

// attempt tries one pattern against the input. ok is false when the pattern
// does not apply; the field then falls through to the next attempt.
type attempt func(text string) (value string, ok bool)

var (
	reCUI  = regexp.MustCompile(`(?i)CUI\s*(\d+)`)
	reName = regexp.MustCompile(`(?i)Targetare\.ro\s+([A-ZĂÂÎȘȚ\s&.\-]+SRL|[A-ZĂÂÎȘȚ\s&.\-]+SA)`)
	reCAEN = regexp.MustCompile(`(?i)CAEN\s*(\d+)\s*-`)

	rePhoneSentence = regexp.MustCompile(`(?i)este\s+(\+\d[\d\s*\-]+)`)
	rePhoneLine     = regexp.MustCompile(`(?i)Telefon\s*\n\s*([^\n]+)`)
	rePhoneContact  = regexp.MustCompile(`(?i)Date de contact[\s\S]*?(\+\d{2,3}[\d\s*\-]{8,15})`)
	rePhoneShape    = regexp.MustCompile(`^\+\d`)
	rePhoneDigit    = regexp.MustCompile(`[\d*]`)

	reAdmin = regexp.MustCompile(`(?i)Administrator\s+(?:GDPR\s+)?([^\n]+)`)

	// The address block runs from the "Adresa" label to the first of the two
	// section headers that follow it on the profile page.
	reAddress = regexp.MustCompile(`(?i)Adresa\s+([\s\S]+?)(?:Top firme|Administrator)`)

	reSector     = regexp.MustCompile(`(?i)Sector\s+(\d+)`)
	reCountyFull = regexp.MustCompile(`(?i)Judet\s+([^,\n]+)`)
	reCountyAbbr = regexp.MustCompile(`(?i)Jud\.\s+([^,\n]+)`)

	reCityLike   = regexp.MustCompile(`(?i)(?:Municipiul|Orasul|Comuna)\s+([^,]+)`)
	reVillageOrs = regexp.MustCompile(`(?i)Sat\s+([^\s,]+)\s+Ors\.\s+([^,\s]+)`)
	reVillageCom = regexp.MustCompile(`(?i)Sat\s+([^\s,]+)\s+Com\.\s+([^,\s]+)`)
	reOrs        = regexp.MustCompile(`(?i)Ors\.\s+([^,\s]+)`)
	reCom        = regexp.MustCompile(`(?i)Com\.\s+([^,\s]+)`)
	reVillage    = regexp.MustCompile(`(?i)Sat\s+([^,\s]+)`)
)

// Pastes arrive with both the cedilla (ş, ţ) and comma-below (ș, ț) code
// points depending on the source page's encoding era; fold to comma-below so
// the name character class matches either.
var normalizer = transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
	switch r {
	case 'ş':
		return 'ș'
	case 'Ş':
		return 'Ș'
	case 'ţ':
		return 'ț'
	case 'Ţ':
		return 'Ț'
	}
	return r
}))

func normalize(text string) string {
	out, _, err := transform.String(normalizer, text)
	if err != nil {
		return text
	}
	return out
}

func group1(re *regexp.Regexp) attempt {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1]), true
		}
		return "", false
	}
}

func looksLikePhone(s string) bool {
	s = strings.TrimSpace(s)
	return rePhoneShape.MatchString(s) && rePhoneDigit.MatchString(s)
}

var cuiAttempts = []attempt{group1(reCUI)}

var nameAttempts = []attempt{group1(reName)}

var caenAttempts = []attempt{group1(reCAEN)}

// Phone is tried in strict priority order: the "este +40..." sentence form,
// then a validated line under the "Telefon" label, then a bounded scan
// inside the contact-details section.
var phoneAttempts = []attempt{
	group1(rePhoneSentence),
	func(text string) (string, bool) {
		m := rePhoneLine.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		candidate := strings.TrimSpace(m[1])
		if looksLikePhone(candidate) {
			return candidate, true
		}
		return "", false
	},
	group1(rePhoneContact),
}

var adminAttempts = []attempt{group1(reAdmin)}

var addressAttempts = []attempt{group1(reAddress)}

var countyAttempts = []attempt{
	func(addr string) (string, bool) {
		m := reSector.FindStringSubmatch(addr)
		if len(m) < 2 {
			return "", false
		}
		return fmt.Sprintf("Sector %s", m[1]), true
	},
	group1(reCountyFull),
	group1(reCountyAbbr),
}

// Rural addresses in Ilfov and similar counties spell the village plus its
// administrative town/commune; render those as "<village>, <town>".
var localityAttempts = []attempt{
	func(addr string) (string, bool) {
		m := reCityLike.FindStringSubmatch(addr)
		if len(m) < 2 {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	pairAttempt(reVillageOrs),
	pairAttempt(reVillageCom),
	group1(reOrs),
	group1(reCom),
	group1(reVillage),
}

func pairAttempt(re *regexp.Regexp) attempt {
	return func(addr string) (string, bool) {
		m := re.FindStringSubmatch(addr)
		if len(m) < 3 {
			return "", false
		}
		return fmt.Sprintf("%s, %s", strings.TrimSpace(m[1]), strings.TrimSpace(m[2])), true
	}
}

func firstMatch(text string, attempts []attempt) (string, bool) {
	for _, try := range attempts {
		if v, ok := try(text); ok {
			return v, true
		}
	}
	return "", false
}

// Parse extracts a CompanyRecord from one pasted profile text. Optional
// fields fail silently to their defaults; missing CUI or name fails the
// whole parse. Input length limits are the caller's concern — short or
// malformed input simply comes back as ErrNotFound.
func Parse(text string) (domain.CompanyRecord, error) {
	text = normalize(text)

	cui, okCUI := firstMatch(text, cuiAttempts)
	name, okName := firstMatch(text, nameAttempts)
	if !okCUI || !okName {
		return domain.CompanyRecord{}, ErrNotFound
	}

	rec := domain.CompanyRecord{
		CUI:      cui,
		Name:     name,
		Locality: domain.NotAvailable,
		County:   domain.NotAvailable,
		CAENCode: domain.NotAvailable,
	}

	if caen, ok := firstMatch(text, caenAttempts); ok {
		rec.CAENCode = caen
	}
	if phone, ok := firstMatch(text, phoneAttempts); ok {
		rec.Phone = &phone
	}
	if admin, ok := firstMatch(text, adminAttempts); ok {
		rec.Administrator = &admin
	}
	if addr, ok := firstMatch(text, addressAttempts); ok {
		rec.Address = addr
		if county, ok := firstMatch(addr, countyAttempts); ok {
			rec.County = county
		}
		if locality, ok := firstMatch(addr, localityAttempts); ok {
			rec.Locality = locality
		}
	}
	return rec, nil
}

var reNonDigit = regexp.MustCompile(`\D`)

// CleanCUI strips everything but digits, the shape the registry lookup keys on.
func CleanCUI(cui string) string {
	return reNonDigit.ReplaceAllString(cui, "")
}

var rePhonePrefix = regexp.MustCompile(`^\+40|^0040`)

// FormatPhone renders a Romanian +40/0040 number the way operators dial it,
// "+4 0XXX XXX XXX". Empty input renders as an em dash for the call screen;
// any other shape passes through unchanged.
func FormatPhone(phone string) string {
	if phone == "" {
		return "—"
	}
	raw := strings.ReplaceAll(phone, " ", "")
	if !strings.HasPrefix(raw, "+40") && !strings.HasPrefix(raw, "0040") {
		return phone
	}
	digits := reNonDigit.ReplaceAllString(rePhonePrefix.ReplaceAllString(raw, ""), "")
	if len(digits) != 9 {
		return phone
	}
	return fmt.Sprintf("+4 0%s %s %s", digits[0:3], digits[3:6], digits[6:])
}
