package models

// VoteType is the stored vote value; the sign doubles as the count delta.
type VoteType int

const (
	VoteTypeUpvote   VoteType = 1
	VoteTypeDownvote VoteType = -1
)

func ParseVoteType(s string) (VoteType, error) {
	switch s {
	case "up", "upvote":
		return VoteTypeUpvote, nil
	case "down", "downvote":
		return VoteTypeDownvote, nil
	default:
		return 0, ErrInvalidInput
	}
}

// VoteResult reports the outcome of a vote application. Applied is false
// when the user had already cast the same vote; nothing changed then.
type VoteResult struct {
	Applied   bool `json:"applied"`
	Delta     int  `json:"delta"`
	VoteCount int  `json:"voteCount"`
}
