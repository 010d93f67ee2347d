package repository

import (
	"strconv"
	"strings"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldKind decides how a filter value is parsed and compared.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumber
	FieldBool
	FieldUUID
	FieldDate // value is YYYY-MM-DD, compared against the column's date
)

// Field maps a public filter token to a column.
type Field struct {
	Column string
	Kind   FieldKind
}

// FieldSet is the allow-list of filterable and sortable fields for one
// resource. Column names never come from the client.
type FieldSet map[string]Field

// ListPlan is a resolved, validated list query.
type ListPlan struct {
	Where   string
	Args    []any
	Rank    string // prefix-match rank expression, text filters only
	RankArg any
	OrderBy string
	Limit   int
	Offset  int
}

// Plan validates q against the allow-list. Unknown tokens and values that do
// not parse for the field's kind fail with a validation error.
func (fs FieldSet) Plan(q dto.ListQuery, defaultOrder string) (ListPlan, error) {
	q.Normalize()
	p := ListPlan{OrderBy: defaultOrder, Limit: q.Limit, Offset: q.Offset}

	if q.Attr != "" {
		f, ok := fs[q.Attr]
		if !ok {
			return p, apierror.Validation("Filtro no permitido", map[string]string{"attr": q.Attr})
		}
		switch f.Kind {
		case FieldText:
			p.Where = f.Column + " ILIKE ?"
			p.Args = []any{"%" + escapeLike(q.Value) + "%"}
			p.Rank = "CASE WHEN " + f.Column + " ILIKE ? THEN 0 ELSE 1 END"
			p.RankArg = escapeLike(q.Value) + "%"
		case FieldNumber:
			d, err := decimal.NewFromString(q.Value)
			if err != nil {
				return p, apierror.Validation("Valor numerico invalido", map[string]string{"value": q.Value})
			}
			p.Where = f.Column + " = ?"
			p.Args = []any{d}
		case FieldBool:
			b, err := strconv.ParseBool(q.Value)
			if err != nil {
				return p, apierror.Validation("Valor booleano invalido", map[string]string{"value": q.Value})
			}
			p.Where = f.Column + " = ?"
			p.Args = []any{b}
		case FieldUUID:
			id, err := uuid.Parse(q.Value)
			if err != nil {
				return p, apierror.Validation("Identificador invalido", map[string]string{"value": q.Value})
			}
			p.Where = f.Column + " = ?"
			p.Args = []any{id}
		case FieldDate:
			day, err := time.Parse(time.DateOnly, q.Value)
			if err != nil {
				return p, apierror.Validation("Fecha invalida, formato YYYY-MM-DD", map[string]string{"value": q.Value})
			}
			p.Where = f.Column + " >= ? AND " + f.Column + " < ?"
			p.Args = []any{day, day.AddDate(0, 0, 1)}
		}
	}

	if q.Order != "" {
		token, dir := q.Order, "ASC"
		if strings.HasPrefix(token, "-") {
			token, dir = token[1:], "DESC"
		}
		f, ok := fs[token]
		if !ok {
			return p, apierror.Validation("Orden no permitido", map[string]string{"order": q.Order})
		}
		p.OrderBy = f.Column + " " + dir
	}
	return p, nil
}

// Filter applies the WHERE part only, so it can be shared by Count and Find.
func (p ListPlan) Filter(db *gorm.DB) *gorm.DB {
	if p.Where == "" {
		return db
	}
	return db.Where(p.Where, p.Args...)
}

// Page applies ordering and limit/offset. The rank expression and the sort
// column go into one ORDER BY clause; gorm drops expression-based order
// clauses when a plain column order is merged after them.
func (p ListPlan) Page(db *gorm.DB) *gorm.DB {
	switch {
	case p.Rank != "":
		sql := p.Rank
		if p.OrderBy != "" {
			sql += ", " + p.OrderBy
		}
		db = db.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL: sql, Vars: []any{p.RankArg}, WithoutParentheses: true,
		}})
	case p.OrderBy != "":
		db = db.Order(p.OrderBy)
	}
	return db.Limit(p.Limit).Offset(p.Offset)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// findPage runs count + page for a plan on model M.
func findPage[M any](db *gorm.DB, plan ListPlan, out *[]M, preload ...string) (int64, error) {
	var total int64
	q := plan.Filter(db.Model(new(M)))
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	q = plan.Page(plan.Filter(db.Model(new(M))))
	for _, rel := range preload {
		q = q.Preload(rel)
	}
	return total, q.Find(out).Error
}
