package erp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"printfloor/internal/loyalty"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
)

// erpTimeLayout is the ERP's naive UTC datetime format.
const erpTimeLayout = "2006-01-02 15:04:05"

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// many2one is a relational field: [id, "display name"] or false when unset.
type many2one struct {
	ID   int64
	Name string
}

func (m *many2one) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("false")) || bytes.Equal(b, []byte("null")) {
		*m = many2one{}
		return nil
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("many2one: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("many2one: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &m.ID); err != nil {
		return fmt.Errorf("many2one id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &m.Name); err != nil {
		return fmt.Errorf("many2one name: %w", err)
	}
	return nil
}

// erpTime parses both the ERP's naive format and RFC 3339. Empty strings and
// false decode to the zero time.
type erpTime struct {
	time.Time
}

func (t *erpTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("false")) || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("datetime: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.ParseInLocation(erpTimeLayout, s, time.UTC); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("datetime %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// erpString is a text field the ERP sends as false or null when empty.
type erpString string

func (e *erpString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("false")) || bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("text: %w", err)
	}
	*e = erpString(s)
	return nil
}

type apiStage struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Sequence   int    `json:"sequence"`
	Restricted bool   `json:"restricted"`
}

func (a apiStage) toStage() stage.Stage {
	return stage.Stage{ID: a.ID, Name: a.Name, Sequence: a.Sequence, Restricted: a.Restricted}
}

type apiLead struct {
	ID            int64     `json:"id"`
	Name          erpString `json:"name"`
	StageID       many2one  `json:"stage_id"`
	PartnerID     many2one  `json:"partner_id"`
	CreateDate    erpTime   `json:"create_date"`
	LastStageDate erpTime   `json:"date_last_stage_update"`
	WriteDate     erpTime   `json:"write_date"`
}

func (a apiLead) toJob() stage.Job {
	last := a.LastStageDate.Time
	if last.IsZero() {
		last = a.WriteDate.Time
	}
	return stage.Job{
		ID:               a.ID,
		Name:             string(a.Name),
		CurrentStageID:   a.StageID.ID,
		CurrentStageName: a.StageID.Name,
		PartnerID:        a.PartnerID.ID,
		CreatedAt:        a.CreateDate.Time,
		LastActivityAt:   last,
	}
}

type apiStageChange struct {
	Date      erpTime  `json:"date"`
	FromStage many2one `json:"old_stage_id"`
	ToStage   many2one `json:"new_stage_id"`
	User      many2one `json:"user_id"`
}

func (a apiStageChange) toEvent() timeline.Event {
	return timeline.Event{
		Timestamp: a.Date.Time,
		FromStage: a.FromStage.Name,
		ToStage:   a.ToStage.Name,
		Actor:     a.User.Name,
	}
}

type apiTeamMember struct {
	ID     int64     `json:"id"`
	UserID many2one  `json:"user_id"`
	Team   many2one  `json:"crm_team_id"`
	Email  erpString `json:"email"`
}

func (a apiTeamMember) toMember() team.Member {
	return team.Member{
		ID:       a.UserID.ID,
		Name:     a.UserID.Name,
		Email:    string(a.Email),
		TeamID:   a.Team.ID,
		TeamName: a.Team.Name,
	}
}

type apiPartnerStats struct {
	TotalOrders   int       `json:"total_orders"`
	TotalSpent    float64   `json:"total_spent"`
	LoyaltyPoints int       `json:"loyalty_points"`
	LoyaltyTier   erpString `json:"loyalty_tier"`
}

func (a apiPartnerStats) toAccount() loyalty.Account {
	return loyalty.Account{
		Points:      a.LoyaltyPoints,
		TierLabel:   string(a.LoyaltyTier),
		TotalSpent:  a.TotalSpent,
		TotalOrders: a.TotalOrders,
	}
}
