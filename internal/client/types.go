package client

import (
	"time"

	"versusbot.dev/wreck-league-go/internal/match"
)

// Wire types for the Versus and Warpcast APIs. This is the single declared
// schema: a field the response does not carry decodes to its zero value and
// the caller fails closed, instead of probing alternative key paths.

// meResponse is the Warpcast /v2/me envelope.
type meResponse struct {
	Result struct {
		User profile `json:"user"`
	} `json:"result"`
}

type profile struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	PFP         struct {
		URL string `json:"url"`
	} `json:"pfp"`
}

// matchDetailsResponse is the /v1/match/details envelope.
type matchDetailsResponse struct {
	Data struct {
		MatchData []matchData `json:"matchData"`
	} `json:"data"`
}

type matchData struct {
	ID              string       `json:"_id"`
	VotingStartTime string       `json:"votingStartTime"`
	VotingEndTime   string       `json:"votingEndTime"`
	EndTime         string       `json:"endTime"`
	IsVoted         bool         `json:"isVoted"`
	MechIDs         []string     `json:"mechIds"`
	MechDetails     []mechDetail `json:"mechDetails"`
}

type mechDetail struct {
	MechID             string  `json:"mechId"`
	WinningProbability float64 `json:"winningProbability"`
	MechVotes          struct {
		VoteCount  int `json:"voteCount"`
		FuelPoints int `json:"fuelPoints"`
	} `json:"mechVotes"`
	UserData struct {
		DisplayName string `json:"displayName"`
	} `json:"userData"`
}

// userDataResponse is the /v1/user/data envelope.
type userDataResponse struct {
	Data struct {
		FuelBalance  int  `json:"fuelBalance"`
		CanClaimFuel bool `json:"canClaimFuel"`
	} `json:"data"`
}

// fuelRewardResponse is the /v1/user/fuelReward envelope.
type fuelRewardResponse struct {
	Data struct {
		Fuel int `json:"fuel"`
	} `json:"data"`
}

// predictRequest is the /v2/matches/predict body.
type predictRequest struct {
	FID        int64  `json:"fId"`
	MechID     string `json:"mechId"`
	MatchID    string `json:"matchId"`
	FuelPoints int    `json:"fuelPoints"`
}

// apiError is the error envelope the Versus API returns on failures.
type apiError struct {
	Message string `json:"message"`
}

// registerRequest is the /v1/user/add body.
type registerRequest struct {
	User   registerUser   `json:"user"`
	Client registerClient `json:"client"`
}

type registerUser struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	PFPURL      string `json:"pfpUrl"`
}

type registerClient struct {
	ClientFID           int64               `json:"clientFid"`
	Added               bool                `json:"added"`
	NotificationDetails notificationDetails `json:"notificationDetails"`
}

type notificationDetails struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// notificationRequest is the /v1/user/notification body.
type notificationRequest struct {
	FID                 int64               `json:"fid"`
	ClientFID           int64               `json:"clientFid"`
	NotificationDetails notificationDetails `json:"notificationDetails"`
}

// toMatch converts wire match data into the scheduler's model. The voting
// end falls back to the generic end timestamp when the dedicated one is
// absent; unparsable timestamps stay nil and classify as Unknown upstream.
func (d matchData) toMatch() match.Match {
	m := match.Match{
		ID:          d.ID,
		Voted:       d.IsVoted,
		VotingStart: parseRemoteTime(d.VotingStartTime),
	}
	if end := parseRemoteTime(d.VotingEndTime); end != nil {
		m.VotingEnd = end
	} else {
		m.VotingEnd = parseRemoteTime(d.EndTime)
	}

	if len(d.MechDetails) > 0 {
		for i, mech := range d.MechDetails {
			m.Sides = append(m.Sides, match.Side{
				ID:             mech.MechID,
				Position:       i,
				WinProbability: mech.WinningProbability,
				VoteCount:      mech.MechVotes.VoteCount,
				FuelPoints:     mech.MechVotes.FuelPoints,
				OwnerName:      mech.UserData.DisplayName,
			})
		}
		return m
	}

	// Degraded payloads sometimes carry only the id list.
	for i, id := range d.MechIDs {
		m.Sides = append(m.Sides, match.Side{ID: id, Position: i})
	}
	return m
}

// parseRemoteTime parses the service's ISO timestamps. Timezone-naive
// values are assumed UTC.
func parseRemoteTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
