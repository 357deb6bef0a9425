package service

import (
	"testing"

	"focus/internal/model"
)

func minimizeChallenge(target int) *model.Challenge {
	return &model.Challenge{Type: model.ChallengeMinimizeTime, TargetMinutes: target}
}

func TestScoreRewardsLowerUsage(t *testing.T) {
	c := minimizeChallenge(600)

	zero := score(c, &model.ChallengeParticipant{TotalTimeMinutes: 0})
	atTarget := score(c, &model.ChallengeParticipant{TotalTimeMinutes: 600})
	doubled := score(c, &model.ChallengeParticipant{TotalTimeMinutes: 1200})
	beyond := score(c, &model.ChallengeParticipant{TotalTimeMinutes: 5000})

	if zero != 100 {
		t.Errorf("zero usage should score 100, got %v", zero)
	}
	if atTarget != 50 {
		t.Errorf("usage at target should score 50, got %v", atTarget)
	}
	if doubled != 0 || beyond != 0 {
		t.Errorf("usage at or past double target should floor at 0, got %v and %v", doubled, beyond)
	}
	if !(zero > atTarget && atTarget > doubled) {
		t.Error("score should decrease with usage")
	}
}

func TestGoalAchievedPerType(t *testing.T) {
	cases := []struct {
		name string
		c    *model.Challenge
		p    model.ChallengeParticipant
		want bool
	}{
		{
			name: "minimize under total target",
			c:    minimizeChallenge(600),
			p:    model.ChallengeParticipant{TotalTimeMinutes: 500},
			want: true,
		},
		{
			name: "minimize over total target",
			c:    minimizeChallenge(600),
			p:    model.ChallengeParticipant{TotalTimeMinutes: 700},
			want: false,
		},
		{
			name: "daily goal met",
			c:    &model.Challenge{Type: model.ChallengeDailyGoal, TargetMinutes: 90},
			p:    model.ChallengeParticipant{DailyAverage: 80},
			want: true,
		},
		{
			name: "daily goal missed",
			c:    &model.Challenge{Type: model.ChallengeDailyGoal, TargetMinutes: 90},
			p:    model.ChallengeParticipant{DailyAverage: 120},
			want: false,
		},
		{
			name: "weekly goal met",
			c:    &model.Challenge{Type: model.ChallengeWeeklyGoal, TargetMinutes: 700},
			p:    model.ChallengeParticipant{DailyAverage: 90},
			want: true,
		},
		{
			name: "weekly goal missed",
			c:    &model.Challenge{Type: model.ChallengeWeeklyGoal, TargetMinutes: 700},
			p:    model.ChallengeParticipant{DailyAverage: 110},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := goalAchieved(tc.c, &tc.p); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
