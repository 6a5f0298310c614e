package extract

import (
	"regexp"
	"strconv"
)

// CountHeuristic guesses answer and follower counts from an item's flattened
// text.
type CountHeuristic interface {
	Counts(text string) (answers, followers int)
}

var reInteger = regexp.MustCompile(`\d+`)

// FirstTwoIntegers assigns the first integer in the text to answers and the
// second to followers. It is position dependent: a year in the title ends up
// as the answer count.
type FirstTwoIntegers struct{}

func (FirstTwoIntegers) Counts(text string) (int, int) {
	nums := reInteger.FindAllString(text, 2)
	var answers, followers int
	if len(nums) > 0 {
		answers, _ = strconv.Atoi(nums[0])
	}
	if len(nums) > 1 {
		followers, _ = strconv.Atoi(nums[1])
	}
	return answers, followers
}
