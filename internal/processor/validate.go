package processor

import (
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"hotlist_spider/internal/models"
)

const MaxTitleLength = 500

var (
	ErrMissingID    = errors.New("missing question_id")
	ErrMissingTitle = errors.New("missing title")
	ErrBadID        = errors.New("question_id is not numeric")
	ErrTitleTooLong = errors.New("title too long")
)

// Validate checks the rules in order and returns the first one that fails.
func Validate(item models.HotListItem) error {
	if item.QuestionID == "" {
		return ErrMissingID
	}
	if item.Title == "" {
		return ErrMissingTitle
	}
	if !isDigits(item.QuestionID) {
		return ErrBadID
	}
	if utf8.RuneCountInString(item.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func IsValid(item models.HotListItem) bool {
	if err := Validate(item); err != nil {
		log.Warn().Err(err).
			Str("question_id", item.QuestionID).
			Int("title_length", utf8.RuneCountInString(item.Title)).
			Msg("dropping invalid item")
		return false
	}
	return true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
