package engine

import (
	"net/mail"
	"regexp"
	"time"

	"github.com/parisxmas/OxiForms/internal/models"
)

const dateLayout = "2006-01-02"

// kind is the per-type behaviour of the validator and the assembler.
// check receives a non-empty answer and returns its normalized form, or
// the reason it was rejected.
type kind struct {
	answerable bool
	check      func(f *models.Field, v any) (any, Reason)
}

// kinds is the single registration site for field-type validation and
// normalization. Every models.FieldType has an entry.
var kinds = map[models.FieldType]kind{
	models.FieldText:      {answerable: true, check: checkText},
	models.FieldTextarea:  {answerable: true, check: checkText},
	models.FieldEmail:     {answerable: true, check: checkEmail},
	models.FieldNumber:    {answerable: true, check: checkNumber},
	models.FieldSelect:    {answerable: true, check: checkChoice},
	models.FieldRadio:     {answerable: true, check: checkChoice},
	models.FieldCheckbox:  {answerable: true, check: checkCheckbox},
	models.FieldDate:      {answerable: true, check: checkDate},
	models.FieldFile:      {answerable: true, check: checkFiles},
	models.FieldHeading:   {},
	models.FieldParagraph: {},
}

// Answerable reports whether fields of type t carry an answer.
func Answerable(t models.FieldType) bool {
	return kinds[t].answerable
}

func checkText(f *models.Field, v any) (any, Reason) {
	s, ok := v.(string)
	if !ok {
		return nil, ReasonWrongType
	}
	if f.Validation != nil && f.Validation.Pattern != "" {
		re, err := compilePattern(f.Validation.Pattern)
		if err == nil && !re.MatchString(s) {
			return nil, ReasonPatternMismatch
		}
	}
	return s, ""
}

func checkEmail(f *models.Field, v any) (any, Reason) {
	s, ok := v.(string)
	if !ok {
		return nil, ReasonWrongType
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return nil, ReasonWrongType
	}
	return s, ""
}

func checkNumber(f *models.Field, v any) (any, Reason) {
	n, ok := toNumber(v)
	if !ok {
		return nil, ReasonWrongType
	}
	if f.Validation != nil {
		if f.Validation.Min != nil && n < *f.Validation.Min {
			return nil, ReasonOutOfRange
		}
		if f.Validation.Max != nil && n > *f.Validation.Max {
			return nil, ReasonOutOfRange
		}
	}
	return n, ""
}

func checkChoice(f *models.Field, v any) (any, Reason) {
	s, ok := v.(string)
	if !ok {
		return nil, ReasonWrongType
	}
	if !f.HasOption(s) {
		return nil, ReasonInvalidOption
	}
	return s, ""
}

// checkCheckbox handles both shapes: a lone checkbox answers a boolean, a
// checkbox group (one with options) answers an ordered list of values.
func checkCheckbox(f *models.Field, v any) (any, Reason) {
	if len(f.Options) == 0 {
		b, ok := toBool(v)
		if !ok {
			return nil, ReasonWrongType
		}
		return b, ""
	}
	values, ok := toStrings(v)
	if !ok {
		return nil, ReasonWrongType
	}
	out := make([]string, 0, len(values))
	for _, s := range values {
		if !f.HasOption(s) {
			return nil, ReasonInvalidOption
		}
		out = append(out, s)
	}
	return out, ""
}

func checkDate(f *models.Field, v any) (any, Reason) {
	s, ok := v.(string)
	if !ok {
		return nil, ReasonWrongType
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return nil, ReasonWrongType
	}
	return s, ""
}

func checkFiles(f *models.Field, v any) (any, Reason) {
	refs, ok := v.([]FileRef)
	if !ok {
		return nil, ReasonWrongType
	}
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !Accepts(f.Accept, ref) {
			return nil, ReasonUnsupportedType
		}
		if f.MaxSize > 0 && ref.Size > f.MaxSize {
			return nil, ReasonTooLarge
		}
		urls = append(urls, ref.URL)
	}
	return urls, ""
}

// compilePattern anchors a field pattern the way the HTML pattern
// attribute does: the whole value must match.
func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + p + ")$")
}
