package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// ErrNotFound is returned when a quote ID does not exist.
var ErrNotFound = errors.New("quote not found")

// timeLayout is fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// QuoteSummary is one row of the quote list.
type QuoteSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Customer     string    `json:"customer"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	CostTotal    float64   `json:"cost_total"`
	SellingPrice float64   `json:"selling_price"`
}

// Quotes stores quotes in a SQLite database.
type Quotes struct {
	db *sql.DB
}

// NewQuotes wraps an open, migrated database.
func NewQuotes(db *sql.DB) *Quotes {
	return &Quotes{db: db}
}

// Save inserts or replaces a quote.
func (s *Quotes) Save(ctx context.Context, q model.Quote) error {
	input, err := json.Marshal(q.Input)
	if err != nil {
		return fmt.Errorf("encode quote input: %w", err)
	}
	result, err := json.Marshal(q.Result)
	if err != nil {
		return fmt.Errorf("encode quote result: %w", err)
	}
	markup, err := json.Marshal(q.Markup)
	if err != nil {
		return fmt.Errorf("encode quote markup: %w", err)
	}

	var templateID string
	if q.Input.Template != nil {
		templateID = q.Input.Template.ID
	}
	basis := q.PriceBasis
	if basis == "" {
		basis = model.PriceBasisCost
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (id, title, customer, currency, created_at, template_id, input_json, result_json, markup_json,
			cost_total, price_base, price_basis, selling_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			customer = excluded.customer,
			currency = excluded.currency,
			template_id = excluded.template_id,
			input_json = excluded.input_json,
			result_json = excluded.result_json,
			markup_json = excluded.markup_json,
			cost_total = excluded.cost_total,
			price_base = excluded.price_base,
			price_basis = excluded.price_basis,
			selling_price = excluded.selling_price
	`, q.ID, q.Title, q.Customer, q.Currency, q.CreatedAt.UTC().Format(timeLayout), templateID,
		string(input), string(result), string(markup), q.Result.Costs.Total, q.PriceBase, string(basis), q.SellingPrice)
	if err != nil {
		return fmt.Errorf("save quote %s: %w", q.ID, err)
	}
	return nil
}

// Get loads a full quote by ID.
func (s *Quotes) Get(ctx context.Context, id string) (model.Quote, error) {
	var q model.Quote
	var createdAt, input, result, markupJSON, basis string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, customer, currency, created_at, input_json, result_json, markup_json,
			price_base, price_basis, selling_price
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &q.Title, &q.Customer, &q.Currency, &createdAt, &input, &result, &markupJSON,
		&q.PriceBase, &basis, &q.SellingPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Quote{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Quote{}, fmt.Errorf("load quote %s: %w", id, err)
	}

	q.PriceBasis = model.PriceBasis(basis)
	if q.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return model.Quote{}, fmt.Errorf("parse created_at of quote %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(input), &q.Input); err != nil {
		return model.Quote{}, fmt.Errorf("decode input of quote %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(result), &q.Result); err != nil {
		return model.Quote{}, fmt.Errorf("decode result of quote %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(markupJSON), &q.Markup); err != nil {
		return model.Quote{}, fmt.Errorf("decode markup of quote %s: %w", id, err)
	}
	return q, nil
}

// List returns quote summaries, newest first. A non-empty query filters on
// title and customer.
func (s *Quotes) List(ctx context.Context, query string) ([]QuoteSummary, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, customer, currency, created_at, cost_total, selling_price
		FROM quotes
		WHERE (? = '' OR title LIKE ? OR customer LIKE ?)
		ORDER BY created_at DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]QuoteSummary, 0)
	for rows.Next() {
		var item QuoteSummary
		var createdAt string
		if err := rows.Scan(&item.ID, &item.Title, &item.Customer, &item.Currency, &createdAt, &item.CostTotal, &item.SellingPrice); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		if item.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of quote %s: %w", item.ID, err)
		}
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}

	return quotes, nil
}

// CountByTemplate returns how many saved quotes were made with a template.
func (s *Quotes) CountByTemplate(ctx context.Context, templateID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE template_id = ?`, templateID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count quotes for template %s: %w", templateID, err)
	}
	return n, nil
}

// Delete removes a quote. Deleting an unknown ID returns ErrNotFound.
func (s *Quotes) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
