package models

import "time"

// Canonical field names shared by raw records, bson documents and snapshots.
const (
	FieldQuestionID    = "question_id"
	FieldTitle         = "title"
	FieldExcerpt       = "excerpt"
	FieldURL           = "url"
	FieldHotIndex      = "hot_index"
	FieldAnswerCount   = "answer_count"
	FieldFollowerCount = "follower_count"
	FieldCreatedTime   = "created_time"
	FieldUpdatedTime   = "updated_time"
)

// RawRecord is what an extraction strategy produces. Values are untyped and
// may be strings, float64, json.Number, nested maps or nil.
type RawRecord map[string]any

type HotListItem struct {
	QuestionID    string    `json:"question_id" bson:"question_id"`
	Title         string    `json:"title" bson:"title"`
	Excerpt       string    `json:"excerpt" bson:"excerpt"`
	URL           string    `json:"url" bson:"url"`
	HotIndex      float64   `json:"hot_index" bson:"hot_index"`
	AnswerCount   int       `json:"answer_count" bson:"answer_count"`
	FollowerCount int       `json:"follower_count" bson:"follower_count"`
	CreatedTime   time.Time `json:"created_time,omitempty" bson:"created_time,omitempty"`
	UpdatedTime   time.Time `json:"updated_time,omitempty" bson:"updated_time,omitempty"`
}

// MergeHotListItem copies every non-identity field of incoming onto existing.
// CreatedTime is kept from existing; UpdatedTime is left to the caller.
func MergeHotListItem(existing, incoming HotListItem) HotListItem {
	existing.Title = incoming.Title
	existing.Excerpt = incoming.Excerpt
	existing.URL = incoming.URL
	existing.HotIndex = incoming.HotIndex
	existing.AnswerCount = incoming.AnswerCount
	existing.FollowerCount = incoming.FollowerCount
	return existing
}

type Summary struct {
	Count     int       `json:"total_count" bson:"total_count"`
	AvgScore  float64   `json:"avg_hot_index" bson:"avg_hot_index"`
	MaxScore  float64   `json:"max_hot_index" bson:"max_hot_index"`
	MinScore  float64   `json:"min_hot_index" bson:"min_hot_index"`
	Timestamp time.Time `json:"timestamp" bson:"-"`
}
