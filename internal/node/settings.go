package node

import "fmt"

// Settings is the per-node settings block on every node.
type Settings struct {
	dirty            bool
	newItemPlacement Placement
	graveyardState   GraveyardState
	checkedPolicy    CheckedPolicy
}

// NewSettings builds a settings block with the protocol defaults.
func NewSettings() *Settings {
	return &Settings{
		newItemPlacement: PlacementBottom,
		graveyardState:   GraveyardCollapsed,
		checkedPolicy:    CheckedPolicyGraveyard,
	}
}

func (s *Settings) NewItemPlacement() Placement { return s.newItemPlacement }

func (s *Settings) SetNewItemPlacement(value Placement) {
	s.newItemPlacement = value
	s.dirty = true
}

func (s *Settings) GraveyardState() GraveyardState { return s.graveyardState }

func (s *Settings) SetGraveyardState(value GraveyardState) {
	s.graveyardState = value
	s.dirty = true
}

func (s *Settings) CheckedPolicy() CheckedPolicy { return s.checkedPolicy }

func (s *Settings) SetCheckedPolicy(value CheckedPolicy) {
	s.checkedPolicy = value
	s.dirty = true
}

func (s *Settings) Dirty() bool { return s.dirty }

func (s *Settings) Load(d *SettingsDelta) error {
	switch Placement(d.NewListItemPlacement) {
	case PlacementTop, PlacementBottom:
	default:
		return parseError("settings", d, fmt.Errorf("unknown placement %q", d.NewListItemPlacement))
	}
	switch GraveyardState(d.GraveyardState) {
	case GraveyardExpanded, GraveyardCollapsed:
	default:
		return parseError("settings", d, fmt.Errorf("unknown graveyard state %q", d.GraveyardState))
	}
	switch CheckedPolicy(d.CheckedListItemsPolicy) {
	case CheckedPolicyDefault, CheckedPolicyGraveyard:
	default:
		return parseError("settings", d, fmt.Errorf("unknown checked item policy %q", d.CheckedListItemsPolicy))
	}
	s.newItemPlacement = Placement(d.NewListItemPlacement)
	s.graveyardState = GraveyardState(d.GraveyardState)
	s.checkedPolicy = CheckedPolicy(d.CheckedListItemsPolicy)
	s.dirty = d.Dirty
	return nil
}

func (s *Settings) Save(clean bool) *SettingsDelta {
	d := &SettingsDelta{
		NewListItemPlacement:   string(s.newItemPlacement),
		GraveyardState:         string(s.graveyardState),
		CheckedListItemsPolicy: string(s.checkedPolicy),
	}
	if clean {
		s.dirty = false
	} else {
		d.Dirty = s.dirty
	}
	return d
}
