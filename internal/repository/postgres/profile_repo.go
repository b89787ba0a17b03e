package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/internal/search"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// baseVisibility is the non-negotiable server-side filter. It is part of
// every search and facet query regardless of what the caller sends - no
// client-side bypass possible.
const baseVisibility = "is_active = TRUE AND profile_completed = TRUE"

const profileColumns = `
	id, user_id, full_name, email, linkedin_url, portfolio_url,
	title, summary, experience_level, location, remote_preference, availability,
	salary_min, salary_max, COALESCE(salary_currency, ''),
	is_active, profile_completed, is_anonymized,
	COALESCE(role, ''), COALESCE(sector, ''),
	specialisms, skills, board_experience, enrichments,
	created_at, updated_at`

// dimensionColumns maps facet dimension identifiers to their columns.
var dimensionColumns = map[string]string{
	search.DimRole:             "role",
	search.DimSector:           "sector",
	search.DimSpecialism:       "specialisms",
	search.DimSkill:            "skills",
	search.DimBoardExperience:  "board_experience",
	search.DimExperience:       "experience_level",
	search.DimLocation:         "location",
	search.DimAvailability:     "availability",
	search.DimRemotePreference: "remote_preference",
}

// arrayDimensions are the dimensions backed by text[] columns; their facets
// aggregate over unnested elements.
var arrayDimensions = map[string]bool{
	search.DimSpecialism:      true,
	search.DimSkill:           true,
	search.DimBoardExperience: true,
}

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByID(ctx context.Context, id int64) (*domain.CandidateProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM candidate_profiles WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) Search(ctx context.Context, plan domain.QueryPlan) ([]domain.CandidateProfile, int64, error) {
	where, args := buildWhere(plan.Predicates)

	orderBy := orderClause(plan.Sort, plan.Order)
	query := fmt.Sprintf(`SELECT %s FROM candidate_profiles WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		profileColumns, where, orderBy, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, append(args, plan.Limit, plan.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var profiles []domain.CandidateProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM candidate_profiles WHERE %s`, where)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search count failed: %w", err)
	}

	return profiles, total, nil
}

func (r *profileRepo) CountFacet(ctx context.Context, predicates []domain.Predicate, dimension string, limit int) ([]domain.FacetValue, error) {
	column, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown facet dimension %q", dimension)
	}

	where, args := buildWhere(predicates)

	var query string
	if arrayDimensions[dimension] {
		query = fmt.Sprintf(`
			SELECT v, COUNT(*) AS n
			FROM candidate_profiles, unnest(%s) AS v
			WHERE %s
			GROUP BY v
			HAVING COUNT(*) > 0
			ORDER BY n DESC, v ASC`, column, where)
	} else {
		query = fmt.Sprintf(`
			SELECT %s, COUNT(*) AS n
			FROM candidate_profiles
			WHERE %s AND COALESCE(%s, '') <> ''
			GROUP BY %s
			HAVING COUNT(*) > 0
			ORDER BY n DESC, %s ASC`, column, where, column, column, column)
	}
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("facet %s failed: %w", dimension, err)
	}
	defer rows.Close()

	var values []domain.FacetValue
	for rows.Next() {
		var fv domain.FacetValue
		if err := rows.Scan(&fv.Value, &fv.Count); err != nil {
			return nil, err
		}
		values = append(values, fv)
	}
	return values, rows.Err()
}

// ReplaceCareerHistory applies the reprocess pipeline's replace strategy:
// child rows are deleted and reinserted from the latest submitted set inside
// one transaction, so a failed reinsert never leaves a profile stripped of
// its history.
func (r *profileRepo) ReplaceCareerHistory(ctx context.Context, profileID int64, history *domain.CareerHistory) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM work_experiences WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("failed to delete work experiences: %w", err)
	}
	weInsert := `
		INSERT INTO work_experiences (profile_id, company_name, job_title, start_date, end_date, description)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, we := range history.WorkExperiences {
		start, _ := time.Parse("2006-01-02", we.StartDate)
		var end *time.Time
		if we.EndDate != nil && *we.EndDate != "" {
			t, _ := time.Parse("2006-01-02", *we.EndDate)
			end = &t
		}
		if _, err := tx.Exec(ctx, weInsert, profileID, we.CompanyName, we.JobTitle, start, end, we.Description); err != nil {
			return fmt.Errorf("failed to insert work experience: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM educations WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("failed to delete educations: %w", err)
	}
	eduInsert := `
		INSERT INTO educations (profile_id, institution, degree, field_of_study, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, edu := range history.Educations {
		start, _ := time.Parse("2006-01-02", edu.StartDate)
		var end *time.Time
		if edu.EndDate != nil && *edu.EndDate != "" {
			t, _ := time.Parse("2006-01-02", *edu.EndDate)
			end = &t
		}
		if _, err := tx.Exec(ctx, eduInsert, profileID, edu.Institution, edu.Degree, edu.FieldOfStudy, start, end); err != nil {
			return fmt.Errorf("failed to insert education: %w", err)
		}
	}

	// Tags: idempotent upsert into the catalog, then rebuild the pivot and
	// the denormalized filter columns from the submitted set.
	if _, err := tx.Exec(ctx, `DELETE FROM candidate_tags WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("failed to clean candidate tags: %w", err)
	}

	var skills, specialisms []string
	tagUpsert := `
		INSERT INTO tags (name, category)
		VALUES ($1, $2)
		ON CONFLICT (name, category) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	for _, tag := range history.Tags {
		var tagID int64
		if err := tx.QueryRow(ctx, tagUpsert, tag.Name, tag.Category).Scan(&tagID); err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", tag.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO candidate_tags (profile_id, tag_id) VALUES ($1, $2)`, profileID, tagID); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", tag.Name, err)
		}
		switch tag.Category {
		case domain.TagSkill:
			skills = append(skills, tag.Name)
		case domain.TagExpertise:
			specialisms = append(specialisms, tag.Name)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE candidate_profiles SET skills = $1, specialisms = $2, updated_at = NOW() WHERE id = $3`,
		pq.Array(skills), pq.Array(specialisms), profileID,
	); err != nil {
		return fmt.Errorf("failed to refresh filter columns: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *profileRepo) SetVisibility(ctx context.Context, profileID int64, active, completed bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE candidate_profiles SET is_active = $1, profile_completed = $2, updated_at = NOW() WHERE id = $3`,
		active, completed, profileID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// buildWhere renders the predicate list to SQL, always prefixed with the
// hardcoded visibility filter.
func buildWhere(predicates []domain.Predicate) (string, []any) {
	conds := []string{baseVisibility}
	var args []any

	next := func() int { return len(args) + 1 }

	for _, p := range predicates {
		switch p.Kind {
		case domain.PredicateEquality:
			column := dimensionColumns[p.Field]
			if column == "" || len(p.Values) == 0 {
				continue
			}
			conds = append(conds, fmt.Sprintf("%s = $%d", column, next()))
			args = append(args, p.Values[0])

		case domain.PredicateMembership:
			column := dimensionColumns[p.Field]
			if column == "" || len(p.Values) == 0 {
				continue
			}
			conds = append(conds, fmt.Sprintf("%s = ANY($%d)", column, next()))
			args = append(args, pq.Array(p.Values))

		case domain.PredicateContainment:
			column := dimensionColumns[p.Field]
			if column == "" || len(p.Values) == 0 {
				continue
			}
			conds = append(conds, fmt.Sprintf("%s && $%d", column, next()))
			args = append(args, pq.Array(p.Values))

		case domain.PredicateSubstring:
			if len(p.Values) == 0 || len(p.Fields) == 0 {
				continue
			}
			pattern := "%" + escapeLike(p.Values[0]) + "%"
			arg := next()
			var ors []string
			for _, field := range p.Fields {
				ors = append(ors, fmt.Sprintf("%s ILIKE $%d", field, arg))
			}
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
			args = append(args, pattern)

		case domain.PredicateRange:
			// Overlap semantics: a candidate matches when their band
			// intersects the requested band. Unknown salaries match.
			if p.Min != nil {
				conds = append(conds, fmt.Sprintf("(salary_max IS NULL OR salary_max >= $%d)", next()))
				args = append(args, *p.Min)
			}
			if p.Max != nil {
				conds = append(conds, fmt.Sprintf("(salary_min IS NULL OR salary_min <= $%d)", next()))
				args = append(args, *p.Max)
			}
		}
	}

	return strings.Join(conds, " AND "), args
}

// orderClause maps a sort key to its ORDER BY expression. Every ordering
// ends with id ASC so pagination is deterministic even when the primary key
// has ties.
func orderClause(sort domain.SortKey, order domain.SortOrder) string {
	direction := "DESC"
	if order == domain.OrderAsc {
		direction = "ASC"
	}

	var expr string
	switch sort {
	case domain.SortSalary:
		expr = "COALESCE(salary_max, salary_min, 0)"
	case domain.SortAlphabetical:
		expr = "LOWER(title)"
	case domain.SortExperience:
		expr = `CASE experience_level
			WHEN 'executive' THEN 5
			WHEN 'lead' THEN 4
			WHEN 'senior' THEN 3
			WHEN 'mid' THEN 2
			WHEN 'junior' THEN 1
			ELSE 0 END`
	default:
		// relevance and updated: most-recently-updated-first stand-in.
		expr = "updated_at"
	}

	return fmt.Sprintf("%s %s, id ASC", expr, direction)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func scanProfile(row pgx.Row) (*domain.CandidateProfile, error) {
	var p domain.CandidateProfile
	var specialisms, skills, boardExperience []string
	var enrichments []byte

	err := row.Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Email, &p.LinkedInURL, &p.PortfolioURL,
		&p.Title, &p.Summary, &p.ExperienceLevel, &p.Location, &p.RemotePreference, &p.Availability,
		&p.SalaryMin, &p.SalaryMax, &p.SalaryCurrency,
		&p.IsActive, &p.ProfileCompleted, &p.IsAnonymized,
		&p.Role, &p.Sector,
		pq.Array(&specialisms), pq.Array(&skills), pq.Array(&boardExperience), &enrichments,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Specialisms = specialisms
	p.Skills = skills
	p.BoardExperience = boardExperience

	p.Enrichments, err = domain.DecodeEnrichments(enrichments)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
