package achievement

import "fmt"

type CriteriaType string

const (
	CriteriaStreak CriteriaType = "streak"
)

// StreakMilestones is the fixed ladder of consecutive-day milestones.
var StreakMilestones = []int{3, 7, 14, 30, 60, 100, 365}

var milestoneTitles = map[int]string{
	3:   "Explorer",
	7:   "Weekly Wanderer",
	14:  "Dedicated Discoverer",
	30:  "Monthly Master",
	60:  "Seasoned Seeker",
	100: "Exploration Expert",
	365: "Year-Long Legend",
}

var milestoneDescriptions = map[int]string{
	3:   "Discovered glyphs for 3 days in a row",
	7:   "A full week of exploration",
	14:  "Two weeks of consistent discovery",
	30:  "A month of daily exploration",
	60:  "Two months of dedication",
	100: "100 days of exploration mastery",
	365: "A full year of discovery",
}

type Milestone struct {
	Milestone    int          `json:"milestone"`
	CriteriaType CriteriaType `json:"criteria_type"`
	Achieved     bool         `json:"achieved"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Progress     *int         `json:"progress_toward_next,omitempty"`
}

func Title(days int) string {
	if t, ok := milestoneTitles[days]; ok {
		return t
	}
	return fmt.Sprintf("%d Day Streak", days)
}

func Description(days int) string {
	if d, ok := milestoneDescriptions[days]; ok {
		return d
	}
	return fmt.Sprintf("Maintain a %d day discovery streak", days)
}

// ForStreak returns every milestone reached by longest, followed by the next
// unreached milestone carrying the current streak as progress.
func ForStreak(current, longest int) []Milestone {
	out := make([]Milestone, 0, len(StreakMilestones))
	for _, m := range StreakMilestones {
		if longest >= m {
			out = append(out, newMilestone(m, true, nil))
			continue
		}
		progress := current
		out = append(out, newMilestone(m, false, &progress))
		break
	}
	return out
}

// Next returns the first milestone longest has not reached, or nil once the ladder is complete.
func Next(longest int) *int {
	for _, m := range StreakMilestones {
		if longest < m {
			next := m
			return &next
		}
	}
	return nil
}

// Crossed returns the milestones reached between two longest-streak values.
func Crossed(before, after int) []int {
	var crossed []int
	for _, m := range StreakMilestones {
		if before < m && after >= m {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

func newMilestone(days int, achieved bool, progress *int) Milestone {
	return Milestone{
		Milestone:    days,
		CriteriaType: CriteriaStreak,
		Achieved:     achieved,
		Title:        Title(days),
		Description:  Description(days),
		Progress:     progress,
	}
}
