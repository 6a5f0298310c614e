package processor

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"hotlist_spider/internal/models"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace", "  为什么   天空\n\t是蓝色的  ", "为什么 天空 是蓝色的"},
		{"markup", "<em>热门</em><br/>问题", "热门问题"},
		{"markup between words", "<p>hot</p> <p>topic</p>", "hot topic"},
		{"full width punctuation", "辟谣：这是假消息？", "辟谣:这是假消息?"},
		{"full width latin", "ＧＰＴ－５ 发布了吗", "GPT-5 发布了吗"},
		{"cjk brackets kept", "【热议】“标题”（续）", "【热议】“标题”(续)"},
		{"disallowed symbols dropped", "热榜🔥#1 ★ 第一", "热榜1 第一"},
		{"latin words", "Why is Go_lang fast, really?", "Why is Go_lang fast, really?"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CleanText(tc.in))
		})
	}
}

func TestNormalizeCoercesNumbers(t *testing.T) {
	n := NewNormalizer("https://www.zhihu.com", "/question/")

	item := n.Normalize(models.RawRecord{
		models.FieldQuestionID:    json.Number("42"),
		models.FieldTitle:         " 标题 ",
		models.FieldHotIndex:      "100.5",
		models.FieldAnswerCount:   "abc",
		models.FieldFollowerCount: 12.9,
	})
	require.Equal(t, 100.5, item.HotIndex)
	require.Equal(t, 0, item.AnswerCount)
	require.Equal(t, 12, item.FollowerCount)

	item = n.Normalize(models.RawRecord{models.FieldHotIndex: nil})
	require.Equal(t, 0.0, item.HotIndex)

	item = n.Normalize(models.RawRecord{
		models.FieldHotIndex:    math.NaN(),
		models.FieldAnswerCount: -3,
	})
	require.Equal(t, 0.0, item.HotIndex)
	require.Equal(t, 0, item.AnswerCount)
}

func TestNormalizeIdentityAndURL(t *testing.T) {
	n := NewNormalizer("https://www.zhihu.com/", "")

	item := n.Normalize(models.RawRecord{
		models.FieldQuestionID: 123456789.0,
		models.FieldTitle:      "标题",
	})
	require.Equal(t, "123456789", item.QuestionID)
	require.Equal(t, "https://www.zhihu.com/question/123456789", item.URL)

	item = n.Normalize(models.RawRecord{
		models.FieldQuestionID: " 77 ",
		models.FieldURL:        " https://www.zhihu.com/question/77/answer/1 ",
	})
	require.Equal(t, "77", item.QuestionID)
	require.Equal(t, "https://www.zhihu.com/question/77/answer/1", item.URL)

	item = n.Normalize(models.RawRecord{})
	require.Empty(t, item.QuestionID)
	require.Empty(t, item.URL)
}

func TestValidateRuleOrder(t *testing.T) {
	cases := []struct {
		name string
		item models.HotListItem
		want error
	}{
		{"valid", models.HotListItem{QuestionID: "123", Title: "标题"}, nil},
		{"missing id wins over missing title", models.HotListItem{}, ErrMissingID},
		{"missing title wins over bad id", models.HotListItem{QuestionID: "abc"}, ErrMissingTitle},
		{"bad id", models.HotListItem{QuestionID: "12a", Title: "标题"}, ErrBadID},
		{"signed id", models.HotListItem{QuestionID: "-12", Title: "标题"}, ErrBadID},
		{"bad id wins over long title", models.HotListItem{QuestionID: "x", Title: strings.Repeat("长", 501)}, ErrBadID},
		{"title at limit", models.HotListItem{QuestionID: "1", Title: strings.Repeat("长", 500)}, nil},
		{"title over limit", models.HotListItem{QuestionID: "1", Title: strings.Repeat("长", 501)}, ErrTitleTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.item)
			if tc.want == nil {
				require.NoError(t, err)
				require.True(t, IsValid(tc.item))
				return
			}
			require.ErrorIs(t, err, tc.want)
			require.False(t, IsValid(tc.item))
		})
	}
}

func TestProcessKeepsOnlyValidItems(t *testing.T) {
	p := New("https://www.zhihu.com", "/question/")

	items := p.Process([]models.RawRecord{
		{models.FieldQuestionID: "1", models.FieldTitle: "第一条"},
		{models.FieldQuestionID: "abc", models.FieldTitle: "坏的标识"},
		{models.FieldQuestionID: "2", models.FieldTitle: "<b></b>"},
		{models.FieldQuestionID: "3", models.FieldTitle: strings.Repeat("长", 600)},
		{models.FieldTitle: "没有标识"},
		{models.FieldQuestionID: "4", models.FieldTitle: "第四条", models.FieldHotIndex: "9"},
	})

	require.Len(t, items, 2)
	for _, item := range items {
		require.NoError(t, Validate(item))
	}
	require.Equal(t, "1", items[0].QuestionID)
	require.Equal(t, "4", items[1].QuestionID)
	require.Equal(t, 9.0, items[1].HotIndex)
}

func TestProcessEmptyInput(t *testing.T) {
	p := New("https://www.zhihu.com", "")

	require.Empty(t, p.Process(nil))
	require.NotNil(t, p.Batch(nil))
	require.Empty(t, p.Batch(nil))
}

func TestBatchFirstOccurrenceWins(t *testing.T) {
	p := New("https://www.zhihu.com", "/question/")

	items := p.Batch([]models.RawRecord{
		{models.FieldQuestionID: "555", models.FieldTitle: "先出现的标题"},
		{models.FieldQuestionID: "556", models.FieldTitle: "另一个问题"},
		{models.FieldQuestionID: 555.0, models.FieldTitle: "后出现的标题"},
	})

	require.Len(t, items, 2)
	require.Equal(t, "555", items[0].QuestionID)
	require.Equal(t, "先出现的标题", items[0].Title)
	require.Equal(t, "556", items[1].QuestionID)
}

func TestDedupe(t *testing.T) {
	in := []models.HotListItem{
		{QuestionID: "3", Title: "c"},
		{QuestionID: "1", Title: "a"},
		{QuestionID: "3", Title: "c again"},
		{QuestionID: "2", Title: "b"},
		{QuestionID: "1", Title: "a again"},
	}

	once := Dedupe(in)
	want := []models.HotListItem{
		{QuestionID: "3", Title: "c"},
		{QuestionID: "1", Title: "a"},
		{QuestionID: "2", Title: "b"},
	}
	if diff := cmp.Diff(want, once); diff != "" {
		t.Fatalf("unexpected dedupe result (-want +got):\n%s", diff)
	}

	twice := Dedupe(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("dedupe is not idempotent (-once +twice):\n%s", diff)
	}
	require.Len(t, in, 5)
}

func TestSummarize(t *testing.T) {
	before := time.Now()
	s := Summarize([]models.HotListItem{
		{QuestionID: "1", HotIndex: 10},
		{QuestionID: "2", HotIndex: 30},
		{QuestionID: "3", HotIndex: 20},
	})

	require.Equal(t, 3, s.Count)
	require.InDelta(t, 20.0, s.AvgScore, 1e-9)
	require.Equal(t, 30.0, s.MaxScore)
	require.Equal(t, 10.0, s.MinScore)
	require.False(t, s.Timestamp.Before(before))
}

func TestSummarizeEmpty(t *testing.T) {
	for _, in := range [][]models.HotListItem{nil, {}} {
		s := Summarize(in)
		require.Zero(t, s.Count)
		require.Zero(t, s.AvgScore)
		require.Zero(t, s.MaxScore)
		require.Zero(t, s.MinScore)
		require.False(t, s.Timestamp.IsZero())
	}
}

func TestSortByHotIndex(t *testing.T) {
	in := []models.HotListItem{
		{QuestionID: "a", HotIndex: 10},
		{QuestionID: "b", HotIndex: 30},
		{QuestionID: "c", HotIndex: 10},
		{QuestionID: "d", HotIndex: 20},
	}

	sorted := SortByHotIndex(in)

	var got []string
	for _, item := range sorted {
		got = append(got, item.QuestionID)
	}
	require.Equal(t, []string{"b", "d", "a", "c"}, got)
	require.Equal(t, "a", in[0].QuestionID)
}
