package model

// Visitor handles every question variant plus the unsupported fallback.
// Implementations must provide one method per variant, so a new variant added
// here breaks every renderer until it is handled explicitly.
type Visitor[T any] interface {
	Boolean(q Question) T
	SingleSelect(q Question) T
	MultiSelect(q Question) T
	Date(q Question) T
	Currency(q Question) T
	Text(q Question) T
	Number(q Question) T
	Attachment(q Question) T
	Table(q Question) T
	Unsupported(q Question) T
}

// Dispatch routes q to the visitor method matching its type tag. It is the
// only switch over QuestionType; unknown tags land on Unsupported.
func Dispatch[T any](q Question, v Visitor[T]) T {
	switch q.Type {
	case TypeBoolean:
		return v.Boolean(q)
	case TypeSingleSelect:
		return v.SingleSelect(q)
	case TypeMultiSelect:
		return v.MultiSelect(q)
	case TypeDate:
		return v.Date(q)
	case TypeCurrency:
		return v.Currency(q)
	case TypeText:
		return v.Text(q)
	case TypeNumber:
		return v.Number(q)
	case TypeAttachment:
		return v.Attachment(q)
	case TypeTable:
		return v.Table(q)
	}
	return v.Unsupported(q)
}
