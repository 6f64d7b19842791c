package stats

import (
	"sort"
	"strconv"
	"strings"

	"sondaj/internal/domain"
)

// Aggregator over stored survey responses. Pure: every call recomputes from
// the snapshot it is handed and allocates fresh outputs, so repeated calls
// over an unchanged snapshot are bit-identical. Malformed rows never fault
// the computation; they drop out of the one metric they cannot serve.

// NameCount is one categorical bucket, shaped for the charting layer.
type NameCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ScoreBucket is one histogram bucket. Histogram output always carries the
// six buckets {Nu știu, 1..5} in that order, empty or not.
type ScoreBucket struct {
	Score string `json:"score"`
	Count int    `json:"count"`
}

// Rates are the response-quality metrics over the operator-filtered (but not
// validity-filtered) set. Percentages are rendered to one decimal; an empty
// set renders every rate as "0".
type Rates struct {
	Total        int    `json:"total"`
	Valid        int    `json:"valid"`
	ValidRate    string `json:"valid_rate"`
	RefusalRate  string `json:"refusal_rate"`
	NoAnswerRate string `json:"no_answer_rate"`
}

// ResultV1 is the aggregation over the six-question schema.
type ResultV1 struct {
	Operator        string        `json:"operator"`
	Rates           Rates         `json:"rates"`
	Q1Administrator []NameCount   `json:"q1_administrator"`
	Q2ExpenseShare  []NameCount   `json:"q2_procent_cheltuieli"`
	Q3Impediment    []ScoreBucket `json:"q3_impediment"`
	Q4Justified     []ScoreBucket `json:"q4_justificare"`
	Q5SelfCapable   []ScoreBucket `json:"q5_capabil"`
	Q6CostInfluence []ScoreBucket `json:"q6_influenta_costuri"`
	Q7MonthlySum    []NameCount   `json:"q7_suma_lunara"`
}

// ResultV2 is the aggregation over the eleven-question schema.
type ResultV2 struct {
	Operator          string        `json:"operator"`
	Rates             Rates         `json:"rates"`
	Q1Administrator   []NameCount   `json:"q1_administrator"`
	Q2ExpenseShare    []NameCount   `json:"q2_procent_cheltuieli"`
	Q3Relation        []NameCount   `json:"q3_relatie_contabil"`
	Q4Justified       []NameCount   `json:"q4_obligatie_intemeiata"`
	Q4Motives         []NameCount   `json:"q4_motive"`
	Q5Capable         []ScoreBucket `json:"q5_capabil"`
	Q6AutomatedMotive []NameCount   `json:"q6_motiv_automatizat"`
	Q7MonthlySum      []NameCount   `json:"q7_suma_lunara"`
	Q8WhyAccountant   []NameCount   `json:"q8_de_ce_contabil"`
	Q9WouldDrop       []NameCount   `json:"q9_renunta_contabil"`
	Q9Motives         []NameCount   `json:"q9_motive"`
	Q10AgeBand        []NameCount   `json:"q10_varsta"`
	Q11Education      []NameCount   `json:"q11_nivel_studii"`
}

// AllOperators selects every operator in FilterByOperator.
const AllOperators = "all"

// FilterByOperator scopes the set to one operator. "all" is the identity
// filter; a name outside the known operator set yields an empty set rather
// than an error; otherwise the match is a case-insensitive exact one.
func FilterByOperator(rs []domain.Response, operator string, known []string) []domain.Response {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if operator == AllOperators {
		return rs
	}
	recognized := false
	for _, k := range known {
		if strings.EqualFold(k, operator) {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil
	}
	out := make([]domain.Response, 0, len(rs))
	for _, r := range rs {
		if strings.EqualFold(r.Operator, operator) {
			out = append(out, r)
		}
	}
	return out
}

// ValidSubset keeps only completed interviews. This is the denominator for
// every per-question distribution except Q1.
func ValidSubset(rs []domain.Response) []domain.Response {
	out := make([]domain.Response, 0, len(rs))
	for _, r := range rs {
		if r.Completed() {
			out = append(out, r)
		}
	}
	return out
}

// q1BenignReasons is the benign-termination allowlist for the yes/no
// administrator question: these interviews ended early but answered Q1
// meaningfully first. Inclusion is per-question, never global; reasons
// introduced by later schema revisions stay outside the allowlist.
var q1BenignReasons = map[string]bool{
	domain.ReasonAdminAbsent: true,
	domain.ReasonAbandoned:   true,
}

// AdminQuestionSubset keeps completed interviews plus the benign
// terminations that still answered Q1.
func AdminQuestionSubset(rs []domain.Response) []domain.Response {
	out := make([]domain.Response, 0, len(rs))
	for _, r := range rs {
		if r.Completed() || q1BenignReasons[r.EndReason] {
			out = append(out, r)
		}
	}
	return out
}

// Categorical counts the distinct non-empty values of one field. The literal
// "N/A" is a value like any other and gets its own bucket; truly empty
// values are silently excluded. Buckets come back sorted by name so output
// is deterministic.
func Categorical(rs []domain.Response, field func(domain.Response) string) []NameCount {
	counts := map[string]int{}
	for _, r := range rs {
		v := field(r)
		if v == "" {
			continue
		}
		counts[v]++
	}
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Value: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Histogram buckets scores into the fixed six-bucket shape. The accessor
// reports ok=false to exclude a row entirely; values outside [0,5] are also
// excluded rather than faulting the row.
func Histogram(rs []domain.Response, score func(domain.Response) (int, bool)) []ScoreBucket {
	var counts [6]int
	for _, r := range rs {
		v, ok := score(r)
		if !ok || v < 0 || v > 5 {
			continue
		}
		counts[v]++
	}
	out := make([]ScoreBucket, 0, 6)
	out = append(out, ScoreBucket{Score: "Nu știu", Count: counts[0]})
	for s := 1; s <= 5; s++ {
		out = append(out, ScoreBucket{Score: strconv.Itoa(s), Count: counts[s]})
	}
	return out
}

// BinaryDaNu renders a boolean field as the two fixed buckets DA then NU.
func BinaryDaNu(rs []domain.Response, pred func(domain.Response) bool) []NameCount {
	da, nu := 0, 0
	for _, r := range rs {
		if pred(r) {
			da++
		} else {
			nu++
		}
	}
	return []NameCount{{Name: "DA", Value: da}, {Name: "NU", Value: nu}}
}

// triDaNu renders the v2 da/nu/nu_stiu answers in a fixed three-bucket
// order. Empty or unrecognized values are excluded.
func triDaNu(rs []domain.Response, field func(domain.Response) string) []NameCount {
	da, nu, dk := 0, 0, 0
	for _, r := range rs {
		switch field(r) {
		case "da":
			da++
		case "nu":
			nu++
		case "nu_stiu":
			dk++
		}
	}
	return []NameCount{
		{Name: "DA", Value: da},
		{Name: "NU", Value: nu},
		{Name: domain.DontKnow, Value: dk},
	}
}

// QualityRates computes the no-answer, refusal and valid rates over the
// filtered set. Unknown termination reasons count in the denominator only.
func QualityRates(rs []domain.Response) Rates {
	total := len(rs)
	valid, noAnswer, refused := 0, 0, 0
	for _, r := range rs {
		switch {
		case r.Completed():
			valid++
		case r.EndReason == domain.ReasonNoAnswer:
			noAnswer++
		case r.EndReason == domain.ReasonRefused:
			refused++
		}
	}
	return Rates{
		Total:        total,
		Valid:        valid,
		ValidRate:    pct(valid, total),
		RefusalRate:  pct(refused, total),
		NoAnswerRate: pct(noAnswer, total),
	}
}

// pct renders n/total as a one-decimal percentage string; an empty set is
// "0", never a division fault.
func pct(n, total int) string {
	if total == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 1, 64)
}

func bySchema(rs []domain.Response, schema domain.Schema) []domain.Response {
	out := make([]domain.Response, 0, len(rs))
	for _, r := range rs {
		if r.Schema != schema {
			continue
		}
		if schema == domain.SchemaV1 && r.V1 == nil {
			continue
		}
		if schema == domain.SchemaV2 && r.V2 == nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// scoreV1 adapts an int answer of the original schema: 0 already means
// "don't know" there, so every stored value maps straight onto its bucket.
func scoreV1(get func(*domain.AnswersV1) int) func(domain.Response) (int, bool) {
	return func(r domain.Response) (int, bool) {
		return get(r.V1), true
	}
}

// AggregateV1 computes the full six-question result for one operator filter.
func AggregateV1(rs []domain.Response, operator string, known []string) ResultV1 {
	filtered := bySchema(FilterByOperator(rs, operator, known), domain.SchemaV1)
	valid := ValidSubset(filtered)
	q1 := AdminQuestionSubset(filtered)

	return ResultV1{
		Operator:        strings.ToLower(strings.TrimSpace(operator)),
		Rates:           QualityRates(filtered),
		Q1Administrator: BinaryDaNu(q1, func(r domain.Response) bool { return r.IsAdministrator }),
		Q2ExpenseShare:  Categorical(valid, func(r domain.Response) string { return r.V1.ExpenseShare }),
		Q3Impediment:    Histogram(valid, scoreV1(func(a *domain.AnswersV1) int { return a.ImpedimentScore })),
		Q4Justified:     Histogram(valid, scoreV1(func(a *domain.AnswersV1) int { return a.JustifiedScore })),
		Q5SelfCapable:   Histogram(valid, scoreV1(func(a *domain.AnswersV1) int { return a.SelfCapableScore })),
		Q6CostInfluence: Histogram(valid, costInfluenceScore),
		Q7MonthlySum:    Categorical(valid, func(r domain.Response) string { return r.V1.MonthlySum }),
	}
}

// costInfluenceScore parses the Q6 text column of the original schema: the
// don't-know literal maps to bucket 0, a numeric string to its value, and
// anything else drops the row from this histogram only.
func costInfluenceScore(r domain.Response) (int, bool) {
	v := strings.TrimSpace(r.V1.CostInfluence)
	if v == domain.DontKnow {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AggregateV2 computes the full eleven-question result for one operator
// filter. Motive buckets resolve option ids against the option set handed
// in; ids with no matching option are skipped.
func AggregateV2(rs []domain.Response, operator string, known []string, options []domain.MotiveOption) ResultV2 {
	filtered := bySchema(FilterByOperator(rs, operator, known), domain.SchemaV2)
	valid := ValidSubset(filtered)
	q1 := AdminQuestionSubset(filtered)

	labels := map[int64]string{}
	for _, o := range options {
		labels[o.ID] = o.Label
	}

	return ResultV2{
		Operator:        strings.ToLower(strings.TrimSpace(operator)),
		Rates:           QualityRates(filtered),
		Q1Administrator: BinaryDaNu(q1, func(r domain.Response) bool { return r.IsAdministrator }),
		Q2ExpenseShare:  Categorical(valid, func(r domain.Response) string { return r.V2.ExpenseShare }),
		Q3Relation:      Categorical(valid, func(r domain.Response) string { return r.V2.AccountantRelation }),
		Q4Justified:     triDaNu(valid, func(r domain.Response) string { return r.V2.ObligationJustified }),
		Q4Motives:       motiveCounts(valid, labels, func(a *domain.AnswersV2) []int64 { return a.ObligationMotiveIDs }),
		Q5Capable:       Histogram(valid, capableScore),
		Q6AutomatedMotive: Categorical(valid, func(r domain.Response) string {
			return r.V2.AutomatedMotive
		}),
		Q7MonthlySum:    Categorical(valid, func(r domain.Response) string { return r.V2.MonthlySum }),
		Q8WhyAccountant: Categorical(valid, func(r domain.Response) string { return r.V2.WhyAccountant }),
		Q9WouldDrop:     triDaNu(valid, func(r domain.Response) string { return r.V2.WouldDropAccountant }),
		Q9Motives:       motiveCounts(valid, labels, func(a *domain.AnswersV2) []int64 { return a.DropMotiveIDs }),
		Q10AgeBand:      Categorical(valid, func(r domain.Response) string { return r.V2.AgeBand }),
		Q11Education:    Categorical(valid, func(r domain.Response) string { return r.V2.Education }),
	}
}

// capableScore adapts the revised Q5 column: -1 marks a question never
// reached and is excluded; 0 is an explicit don't-know.
func capableScore(r domain.Response) (int, bool) {
	if r.V2.CapableScore < 0 {
		return 0, false
	}
	return r.V2.CapableScore, true
}

func motiveCounts(rs []domain.Response, labels map[int64]string, ids func(*domain.AnswersV2) []int64) []NameCount {
	counts := map[string]int{}
	for _, r := range rs {
		for _, id := range ids(r.V2) {
			label, ok := labels[id]
			if !ok {
				continue
			}
			counts[label]++
		}
	}
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Value: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
