package dispatch

import "encoding/json"

// Action is what the battery should do during one hour of the plan.
type Action int

const (
	ActionIdle Action = iota
	ActionCharge
	ActionDischarge
)

func (a Action) String() string {
	switch a {
	case ActionCharge:
		return "charge"
	case ActionDischarge:
		return "discharge"
	case ActionIdle:
		return "idle"
	default:
		return "unknown"
	}
}

func (a Action) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*a = ActionFromString(str)
	return nil
}

func ActionFromString(str string) Action {
	switch str {
	case "charge":
		return ActionCharge
	case "discharge":
		return ActionDischarge
	default:
		return ActionIdle
	}
}
