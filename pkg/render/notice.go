package render

import (
	"errors"
	"strconv"

	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/tableedit"
)

// NoticeLevel classifies a notice for styling.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a translatable message shown above the form.
type Notice struct {
	Level NoticeLevel
	Key   string
	Args  []any
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool {
	return n.Key == ""
}

// Text translates the notice.
func (n Notice) Text(options RenderOptions, locale string) string {
	if n.Empty() {
		return ""
	}
	return options.T(locale, n.Key, n.Args...)
}

// InfoNotice builds an informational notice.
func InfoNotice(key string, args ...any) Notice {
	return Notice{Level: NoticeInfo, Key: key, Args: args}
}

// NoticeFor maps an operation error onto the notice shown to the user.
// Missing required answers are reported by count.
func NoticeFor(err error) Notice {
	if err == nil {
		return Notice{}
	}

	var (
		validation *session.ValidationError
		persist    *session.PersistError
	)
	switch {
	case errors.As(err, &validation):
		return ErrorNotice("notice.missing_required", strconv.Itoa(validation.Missing.Count()))
	case errors.Is(err, codec.ErrInvalidBoolean),
		errors.Is(err, codec.ErrInvalidNumber),
		errors.Is(err, codec.ErrUnknownOption),
		errors.Is(err, codec.ErrNoPersistPath),
		errors.Is(err, codec.ErrTableVariant),
		errors.Is(err, codec.ErrUnsupported):
		return ErrorNotice("notice.invalid_input", editedCode(err))
	case errors.As(err, &persist):
		return ErrorNotice("notice.persist_failed", persist.Code)
	case errors.Is(err, session.ErrSubmitDisallowed):
		return ErrorNotice("notice.submit_disallowed")
	case errors.Is(err, session.ErrClosed):
		return ErrorNotice("notice.session_closed")
	case errors.Is(err, session.ErrLoadFailure), errors.Is(err, session.ErrNotLoaded):
		return ErrorNotice("form.load_error")
	case errors.Is(err, session.ErrUnknownQuestion), errors.Is(err, session.ErrNotTable):
		return ErrorNotice("notice.unknown_question")
	case errors.Is(err, tableedit.ErrRowNotFound):
		return ErrorNotice("notice.row_not_found")
	default:
		return ErrorNotice("notice.submit_failed")
	}
}

// ErrorNotice builds an error notice.
func ErrorNotice(key string, args ...any) Notice {
	return Notice{Level: NoticeError, Key: key, Args: args}
}

// EditError records which question an edit failed for.
type EditError struct {
	Code string
	Err  error
}

func (e *EditError) Error() string {
	return "render: edit " + strconv.Quote(e.Code) + ": " + e.Err.Error()
}

func (e *EditError) Unwrap() error {
	return e.Err
}

func editedCode(err error) string {
	var edit *EditError
	if errors.As(err, &edit) {
		return edit.Code
	}
	return ""
}
