package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sondaj/internal/domain"
	"sondaj/internal/ports"
)

// uniqueViolation is the Postgres error code the v2 form relies on to turn a
// re-added motive label into a lookup of the existing row.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ResponseRepository

func (db *DB) Insert(ctx context.Context, r *domain.Response) (int64, error) {
	switch r.Schema {
	case domain.SchemaV1:
		return db.insertV1(ctx, r)
	case domain.SchemaV2:
		return db.insertV2(ctx, r)
	default:
		return 0, fmt.Errorf("unknown schema: %q", r.Schema)
	}
}

func (db *DB) insertV1(ctx context.Context, r *domain.Response) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO survey_responses (
			cui, nume_firma, localitate, judet, cod_caen, este_administrator,
			procent_cheltuieli_contabil, impediment_contabil_score,
			justificare_obligativitate_score, capabil_contabilitate_proprie_score,
			influenta_costuri_contabilitate, suma_lunara_contabilitate,
			operator, telefon, administrator, motiv_incheiere
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NULLIF($16,''))
		RETURNING id
	`, r.CUI, r.CompanyName, r.Locality, r.County, r.CAENCode, r.IsAdministrator,
		r.V1.ExpenseShare, r.V1.ImpedimentScore, r.V1.JustifiedScore, r.V1.SelfCapableScore,
		r.V1.CostInfluence, r.V1.MonthlySum,
		r.Operator, r.Phone, r.Administrator, r.EndReason).Scan(&id)
	return id, err
}

func (db *DB) insertV2(ctx context.Context, r *domain.Response) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO survey_responses_v2 (
			cui, nume_firma, localitate, judet, cod_caen, este_administrator,
			q2_procent_cheltuieli, q3_relatie_contabil, q4_obligatie_intemeiata,
			q4_motive_option_ids, q5_capabil_score, q5_capabil_motive,
			q6_motiv_automatizat, q7_suma_lunara, q8_de_ce_contabil,
			q9_renunta_contabil, q9_motive_option_ids, q10_varsta, q11_nivel_studii,
			operator, telefon, administrator, motiv_incheiere
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,NULLIF($23,''))
		RETURNING id
	`, r.CUI, r.CompanyName, r.Locality, r.County, r.CAENCode, r.IsAdministrator,
		r.V2.ExpenseShare, r.V2.AccountantRelation, r.V2.ObligationJustified,
		r.V2.ObligationMotiveIDs, r.V2.CapableScore, r.V2.CapableMotive,
		r.V2.AutomatedMotive, r.V2.MonthlySum, r.V2.WhyAccountant,
		r.V2.WouldDropAccountant, r.V2.DropMotiveIDs, r.V2.AgeBand, r.V2.Education,
		r.Operator, r.Phone, r.Administrator, r.EndReason).Scan(&id)
	return id, err
}

// ListAll returns every stored response across both schemas, ordered by
// creation time ascending. The aggregator re-reads this full snapshot on
// each poll; there is no incremental path.
func (db *DB) ListAll(ctx context.Context) ([]domain.Response, error) {
	v1, err := db.listV1(ctx)
	if err != nil {
		return nil, err
	}
	v2, err := db.listV2(ctx)
	if err != nil {
		return nil, err
	}
	all := append(v1, v2...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func (db *DB) listV1(ctx context.Context) ([]domain.Response, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, cui, nume_firma, localitate, judet, cod_caen, este_administrator,
		       procent_cheltuieli_contabil, impediment_contabil_score,
		       justificare_obligativitate_score, capabil_contabilitate_proprie_score,
		       influenta_costuri_contabilitate, suma_lunara_contabilitate,
		       operator, telefon, administrator, COALESCE(motiv_incheiere, ''), created_at
		FROM survey_responses
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		r := domain.Response{Schema: domain.SchemaV1, V1: &domain.AnswersV1{}}
		if err := rows.Scan(
			&r.ID, &r.CUI, &r.CompanyName, &r.Locality, &r.County, &r.CAENCode, &r.IsAdministrator,
			&r.V1.ExpenseShare, &r.V1.ImpedimentScore, &r.V1.JustifiedScore, &r.V1.SelfCapableScore,
			&r.V1.CostInfluence, &r.V1.MonthlySum,
			&r.Operator, &r.Phone, &r.Administrator, &r.EndReason, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) listV2(ctx context.Context) ([]domain.Response, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, cui, nume_firma, localitate, judet, cod_caen, este_administrator,
		       q2_procent_cheltuieli, q3_relatie_contabil, q4_obligatie_intemeiata,
		       q4_motive_option_ids, q5_capabil_score, q5_capabil_motive,
		       q6_motiv_automatizat, q7_suma_lunara, q8_de_ce_contabil,
		       q9_renunta_contabil, q9_motive_option_ids, q10_varsta, q11_nivel_studii,
		       operator, telefon, administrator, COALESCE(motiv_incheiere, ''), created_at
		FROM survey_responses_v2
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		r := domain.Response{Schema: domain.SchemaV2, V2: &domain.AnswersV2{}}
		if err := rows.Scan(
			&r.ID, &r.CUI, &r.CompanyName, &r.Locality, &r.County, &r.CAENCode, &r.IsAdministrator,
			&r.V2.ExpenseShare, &r.V2.AccountantRelation, &r.V2.ObligationJustified,
			&r.V2.ObligationMotiveIDs, &r.V2.CapableScore, &r.V2.CapableMotive,
			&r.V2.AutomatedMotive, &r.V2.MonthlySum, &r.V2.WhyAccountant,
			&r.V2.WouldDropAccountant, &r.V2.DropMotiveIDs, &r.V2.AgeBand, &r.V2.Education,
			&r.Operator, &r.Phone, &r.Administrator, &r.EndReason, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ExistsByCUI reports whether any survey attempt was already recorded for
// the company, in either schema. One survey per firm.
func (db *DB) ExistsByCUI(ctx context.Context, cui string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM survey_responses WHERE cui = $1
			UNION ALL
			SELECT 1 FROM survey_responses_v2 WHERE cui = $1
		)
	`, cui).Scan(&exists)
	return exists, err
}

// MotiveOptionRepository

func (db *DB) InsertMotiveOption(ctx context.Context, o domain.MotiveOption) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO survey_motive_options (category, label, is_custom)
		VALUES ($1, $2, $3)
		RETURNING id
	`, o.Category, o.Label, o.IsCustom).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ports.ErrDuplicate
	}
	return id, err
}

func (db *DB) ListByCategory(ctx context.Context, c domain.MotiveCategory) ([]domain.MotiveOption, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, category, label, is_custom, created_at
		FROM survey_motive_options
		WHERE category = $1
		ORDER BY id ASC
	`, c)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOptions(rows)
}

func (db *DB) ListAllMotiveOptions(ctx context.Context) ([]domain.MotiveOption, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, category, label, is_custom, created_at
		FROM survey_motive_options
		ORDER BY category ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOptions(rows)
}

func scanOptions(rows pgx.Rows) ([]domain.MotiveOption, error) {
	var out []domain.MotiveOption
	for rows.Next() {
		var o domain.MotiveOption
		if err := rows.Scan(&o.ID, &o.Category, &o.Label, &o.IsCustom, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
