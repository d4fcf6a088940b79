package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Percent is a percentage reported by the dashboard endpoints. The API sends
// it as a number or as a numeric string, sometimes with a trailing "%".
type Percent struct {
	decimal.Decimal
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		p.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("model: parsing percent %q: %w", raw, err)
	}
	p.Decimal = d
	return nil
}

// Trend is "up", "down" or "flat" depending on the sign.
func (p Percent) Trend() string {
	switch p.Sign() {
	case 1:
		return "up"
	case -1:
		return "down"
	}
	return "flat"
}

// String renders the value with at most two decimals and an explicit sign
// for positive changes, e.g. "+12.5%".
func (p Percent) String() string {
	s := p.Round(2).String() + "%"
	if p.Sign() > 0 {
		return "+" + s
	}
	return s
}

// NewUserSummary is the payload of dashboard/newUser.
type NewUserSummary struct {
	NewUserCount      int     `json:"new_user_count"`
	GrowthRatePercent Percent `json:"growth_rate_percent"`
}

// NewPinSummary is the payload of dashboard/newPin.
type NewPinSummary struct {
	NewPostCount      int     `json:"new_post_count"`
	GrowthRatePercent Percent `json:"growth_rate_percent"`
}

// UserActiveSummary is the payload of dashboard/userActive.
type UserActiveSummary struct {
	TotalUsers        int     `json:"total_users"`
	ActiveUsers       int     `json:"active_users"`
	ActiveRatePercent Percent `json:"active_rate_percent"`
}

// InteractionSummary is the payload of dashboard/rateInteractive.
type InteractionSummary struct {
	RatioLast30      Percent `json:"ratioLast30"`
	PercentageChange Percent `json:"percentageChange"`
}

// Dashboard bundles the four summary cards. A nil card failed to load.
type Dashboard struct {
	NewUsers    *NewUserSummary
	NewPins     *NewPinSummary
	ActiveUsers *UserActiveSummary
	Interaction *InteractionSummary
}
