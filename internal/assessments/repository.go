package assessments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("assessments: not found")

// Repository provides PostgreSQL backed persistence for assessments.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Assessment, error)
	Create(ctx context.Context, a Assessment) (int64, error)
	UpdateStatus(ctx context.Context, a Assessment) error
	UpdateScores(ctx context.Context, a Assessment) error
	List(ctx context.Context, req ListAssessmentsRequest) ([]Assessment, int, error)

	InsertSection(ctx context.Context, sec Section) (int64, error)
	UpdateSectionScore(ctx context.Context, sectionID int64, score float64) error

	InsertItem(ctx context.Context, item Item) (int64, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	UpdateItemResponse(ctx context.Context, item Item) error

	InsertPhoto(ctx context.Context, p Photo) (int64, error)
	MarkPhotoProcessed(ctx context.Context, photoID int64, processed bool) error
	ListPhotos(ctx context.Context, assessmentID int64) ([]Photo, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const assessmentColumns = `id, doc_number, company_id, lead_id, service_type, status, scheduled_at,
	location, notes, overall_score, risk_level, started_at, completed_at, cancelled_at,
	assessor_id, created_at, updated_at`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var leadID pgtype.Int8
	var location, notes, riskLevel pgtype.Text
	var overallScore pgtype.Float8
	var startedAt, completedAt, cancelledAt pgtype.Timestamptz
	err := row.Scan(&a.ID, &a.DocNumber, &a.CompanyID, &leadID, &a.ServiceType, &a.Status,
		&a.ScheduledAt, &location, &notes, &overallScore, &riskLevel,
		&startedAt, &completedAt, &cancelledAt, &a.AssessorID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if leadID.Valid {
		a.LeadID = &leadID.Int64
	}
	if location.Valid {
		a.Location = &location.String
	}
	if notes.Valid {
		a.Notes = &notes.String
	}
	if overallScore.Valid {
		a.OverallScore = &overallScore.Float64
	}
	if riskLevel.Valid {
		level := RiskLevel(riskLevel.String)
		a.RiskLevel = &level
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	return &a, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Assessment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM assessments WHERE id = $1 AND company_id = $2
	`, assessmentColumns), id, companyID)
	a, err := scanAssessment(row)
	if err != nil {
		return nil, err
	}

	sections, err := r.listSections(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Sections = sections

	photos, err := r.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Photos = photos
	return a, nil
}

func (r *repository) listSections(ctx context.Context, assessmentID int64) ([]Section, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, assessment_id, title, weight, max_score, actual_score, sort_order
		FROM assessment_sections WHERE assessment_id = $1
		ORDER BY sort_order, id
	`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var sec Section
		var actualScore pgtype.Float8
		if err := rows.Scan(&sec.ID, &sec.AssessmentID, &sec.Title, &sec.Weight,
			&sec.MaxScore, &actualScore, &sec.SortOrder); err != nil {
			return nil, err
		}
		if actualScore.Valid {
			sec.ActualScore = &actualScore.Float64
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sections {
		items, err := r.listItems(ctx, sections[i].ID)
		if err != nil {
			return nil, err
		}
		sections[i].Items = items
	}
	return sections, nil
}

const itemColumns = `id, section_id, type, prompt, max_points, sort_order, rating_scale,
	reverse_scoring, positive_answer, min_acceptable, max_acceptable, choice_points,
	rating_value, bool_value, measured_value, choice_value, text_value, manual_points,
	actual_points, recommendation, estimated_cost, pricing_item_id`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	var ratingScale, ratingValue pgtype.Int4
	var positiveAnswer, boolValue pgtype.Bool
	var minAcceptable, maxAcceptable, measuredValue, manualPoints, actualPoints, estimatedCost pgtype.Float8
	var choiceValue, textValue, recommendation pgtype.Text
	var pricingItemID pgtype.Int8
	var choicePoints []byte
	err := row.Scan(&it.ID, &it.SectionID, &it.Type, &it.Prompt, &it.MaxPoints, &it.SortOrder,
		&ratingScale, &it.ReverseScoring, &positiveAnswer, &minAcceptable, &maxAcceptable,
		&choicePoints, &ratingValue, &boolValue, &measuredValue, &choiceValue, &textValue,
		&manualPoints, &actualPoints, &recommendation, &estimatedCost, &pricingItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ratingScale.Valid {
		v := int(ratingScale.Int32)
		it.RatingScale = &v
	}
	if positiveAnswer.Valid {
		it.PositiveAnswer = &positiveAnswer.Bool
	}
	if minAcceptable.Valid {
		it.MinAcceptable = &minAcceptable.Float64
	}
	if maxAcceptable.Valid {
		it.MaxAcceptable = &maxAcceptable.Float64
	}
	if len(choicePoints) > 0 {
		if err := json.Unmarshal(choicePoints, &it.ChoicePoints); err != nil {
			return nil, fmt.Errorf("decode choice points: %w", err)
		}
	}
	if ratingValue.Valid {
		v := int(ratingValue.Int32)
		it.RatingValue = &v
	}
	if boolValue.Valid {
		it.BoolValue = &boolValue.Bool
	}
	if measuredValue.Valid {
		it.MeasuredValue = &measuredValue.Float64
	}
	if choiceValue.Valid {
		it.ChoiceValue = &choiceValue.String
	}
	if textValue.Valid {
		it.TextValue = &textValue.String
	}
	if manualPoints.Valid {
		it.ManualPoints = &manualPoints.Float64
	}
	if actualPoints.Valid {
		it.ActualPoints = &actualPoints.Float64
	}
	if recommendation.Valid {
		it.Recommendation = &recommendation.String
	}
	if estimatedCost.Valid {
		it.EstimatedCost = &estimatedCost.Float64
	}
	if pricingItemID.Valid {
		it.PricingItemID = &pricingItemID.Int64
	}
	return &it, nil
}

func (r *repository) listItems(ctx context.Context, sectionID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM assessment_items WHERE section_id = $1
		ORDER BY sort_order, id
	`, itemColumns), sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *repository) Create(ctx context.Context, a Assessment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assessments (doc_number, company_id, lead_id, service_type, status,
			scheduled_at, location, notes, assessor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id
	`, a.DocNumber, a.CompanyID, a.LeadID, a.ServiceType, string(a.Status),
		a.ScheduledAt, a.Location, a.Notes, a.AssessorID).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatus(ctx context.Context, a Assessment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assessments
		SET status = $1, started_at = $2, completed_at = $3, cancelled_at = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
	`, string(a.Status), a.StartedAt, a.CompletedAt, a.CancelledAt, a.ID, a.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateScores(ctx context.Context, a Assessment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assessments
		SET overall_score = $1, risk_level = $2, updated_at = NOW()
		WHERE id = $3 AND company_id = $4
	`, a.OverallScore, a.RiskLevel, a.ID, a.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListAssessmentsRequest) ([]Assessment, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argPos))
		args = append(args, *req.LeadID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM assessments %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM assessments %s
		ORDER BY scheduled_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, assessmentColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *a)
	}
	return result, total, rows.Err()
}

func (r *repository) InsertSection(ctx context.Context, sec Section) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assessment_sections (assessment_id, title, weight, max_score, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, sec.AssessmentID, sec.Title, sec.Weight, sec.MaxScore, sec.SortOrder).Scan(&id)
	return id, err
}

func (r *repository) UpdateSectionScore(ctx context.Context, sectionID int64, score float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE assessment_sections SET actual_score = $1 WHERE id = $2
	`, score, sectionID)
	return err
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var choicePoints []byte
	if item.ChoicePoints != nil {
		var err error
		choicePoints, err = json.Marshal(item.ChoicePoints)
		if err != nil {
			return 0, fmt.Errorf("encode choice points: %w", err)
		}
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assessment_items (section_id, type, prompt, max_points, sort_order,
			rating_scale, reverse_scoring, positive_answer, min_acceptable, max_acceptable,
			choice_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, item.SectionID, string(item.Type), item.Prompt, item.MaxPoints, item.SortOrder,
		item.RatingScale, item.ReverseScoring, item.PositiveAnswer,
		item.MinAcceptable, item.MaxAcceptable, choicePoints).Scan(&id)
	return id, err
}

func (r *repository) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM assessment_items WHERE id = $1
	`, itemColumns), itemID)
	return scanItem(row)
}

func (r *repository) UpdateItemResponse(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assessment_items
		SET rating_value = $1, bool_value = $2, measured_value = $3, choice_value = $4,
		    text_value = $5, manual_points = $6, actual_points = $7, recommendation = $8,
		    estimated_cost = $9, pricing_item_id = $10
		WHERE id = $11
	`, item.RatingValue, item.BoolValue, item.MeasuredValue, item.ChoiceValue,
		item.TextValue, item.ManualPoints, item.ActualPoints, item.Recommendation,
		item.EstimatedCost, item.PricingItemID, item.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertPhoto(ctx context.Context, p Photo) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assessment_photos (assessment_id, item_id, path, caption, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`, p.AssessmentID, p.ItemID, p.Path, p.Caption, p.Processed).Scan(&id)
	return id, err
}

func (r *repository) MarkPhotoProcessed(ctx context.Context, photoID int64, processed bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE assessment_photos SET processed = $1 WHERE id = $2
	`, processed, photoID)
	return err
}

func (r *repository) ListPhotos(ctx context.Context, assessmentID int64) ([]Photo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, assessment_id, item_id, path, caption, processed, created_at
		FROM assessment_photos WHERE assessment_id = $1
		ORDER BY id
	`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		var itemID pgtype.Int8
		var caption pgtype.Text
		if err := rows.Scan(&p.ID, &p.AssessmentID, &itemID, &p.Path, &caption,
			&p.Processed, &p.CreatedAt); err != nil {
			return nil, err
		}
		if itemID.Valid {
			p.ItemID = &itemID.Int64
		}
		if caption.Valid {
			p.Caption = &caption.String
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
