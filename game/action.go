package game

import (
	"encoding/json"
	"fmt"
)

// ActionTag discriminates the Action variants named in spec.md §3.
type ActionTag int

const (
	TagFireAction ActionTag = iota
	TagDeleteFireAction
	TagJamMissiles
	TagBreakSensorLock
	TagSensorLock
	TagJamComms
	TagJump
)

var actionTagNames = [...]string{
	TagFireAction:       "FireAction",
	TagDeleteFireAction: "DeleteFireAction",
	TagJamMissiles:      "JamMissiles",
	TagBreakSensorLock:  "BreakSensorLock",
	TagSensorLock:       "SensorLock",
	TagJamComms:         "JamComms",
	TagJump:             "Jump",
}

func (t ActionTag) String() string {
	if int(t) < len(actionTagNames) {
		return actionTagNames[t]
	}
	return "Unknown"
}

// Action is one order queued against a ship for the next Update. Only the
// fields relevant to Tag are populated. Grounded on
// original_source/callisto/src/action.rs's ShipAction enum, extended with
// DeleteFireAction and Jump per spec.md §3 (present in the distilled spec
// and in player.rs's dispatch logic, but missing from the action.rs
// revision in the retrieval pack).
type Action struct {
	Tag              ActionTag
	WeaponID         int         // FireAction, DeleteFireAction
	Target           string      // FireAction, BreakSensorLock, SensorLock, JamComms
	CalledShotSystem *ShipSystem // FireAction, optional
}

func FireAction(weaponID int, target string, calledShot *ShipSystem) Action {
	return Action{Tag: TagFireAction, WeaponID: weaponID, Target: target, CalledShotSystem: calledShot}
}

func DeleteFireAction(weaponID int) Action {
	return Action{Tag: TagDeleteFireAction, WeaponID: weaponID}
}

func JamMissilesAction() Action { return Action{Tag: TagJamMissiles} }

func BreakSensorLockAction(target string) Action {
	return Action{Tag: TagBreakSensorLock, Target: target}
}

func SensorLockAction(target string) Action {
	return Action{Tag: TagSensorLock, Target: target}
}

func JamCommsAction(target string) Action {
	return Action{Tag: TagJamComms, Target: target}
}

func JumpAction() Action { return Action{Tag: TagJump} }

// actionWire is the tagged-variant wire form of one Action:
// {"tag":"FireAction","weapon_id":1,"target":"ship2","called_shot_system":"Hull"}.
// Only the fields relevant to Tag are present on the wire; Action's
// (Un)marshalJSON keeps the "tag" discriminator textual rather than a bare
// integer, matching spec.md §6's named request/response variants.
type actionWire struct {
	Tag              string      `json:"tag"`
	WeaponID         int         `json:"weapon_id,omitempty"`
	Target           string      `json:"target,omitempty"`
	CalledShotSystem *ShipSystem `json:"called_shot_system,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionWire{
		Tag:              a.Tag.String(),
		WeaponID:         a.WeaponID,
		Target:           a.Target,
		CalledShotSystem: a.CalledShotSystem,
	})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w actionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	for tag, name := range actionTagNames {
		if name == w.Tag {
			a.Tag = ActionTag(tag)
			a.WeaponID = w.WeaponID
			a.Target = w.Target
			a.CalledShotSystem = w.CalledShotSystem
			return nil
		}
	}
	return fmt.Errorf("unknown action tag %q", w.Tag)
}

// ShipActions is the ordered list of actions queued for one ship.
type ShipActions struct {
	Ship    string   `json:"ship"`
	Actions []Action `json:"actions"`
}

// MergeActions folds incoming (ship, new_actions) pairs into the existing
// per-ship action buffer using spec.md §4.4's merge rule:
//   - any non-fire, non-delete action in new_actions wipes all prior
//     non-fire, non-delete actions for that ship, then the new action is
//     appended;
//   - a FireAction replaces any prior FireAction with the same weapon_id;
//   - a DeleteFireAction removes the prior FireAction with that weapon_id.
//
// The rule is associative, so multiple clients may submit partial orders
// for the same ship without clobbering each other's fire actions.
func MergeActions(existing map[string][]Action, incoming []ShipActions) map[string][]Action {
	for _, group := range incoming {
		current := existing[group.Ship]
		for _, a := range group.Actions {
			switch a.Tag {
			case TagFireAction:
				current = replaceFireAction(current, a)
			case TagDeleteFireAction:
				current = removeFireAction(current, a.WeaponID)
			default:
				current = append(wipeNonFire(current), a)
			}
		}
		existing[group.Ship] = current
	}
	return existing
}

func wipeNonFire(actions []Action) []Action {
	out := actions[:0:0]
	for _, a := range actions {
		if a.Tag == TagFireAction || a.Tag == TagDeleteFireAction {
			out = append(out, a)
		}
	}
	return out
}

func replaceFireAction(actions []Action, newAction Action) []Action {
	out := actions[:0:0]
	for _, a := range actions {
		if a.Tag == TagFireAction && a.WeaponID == newAction.WeaponID {
			continue
		}
		out = append(out, a)
	}
	return append(out, newAction)
}

func removeFireAction(actions []Action, weaponID int) []Action {
	out := actions[:0:0]
	for _, a := range actions {
		if a.Tag == TagFireAction && a.WeaponID == weaponID {
			continue
		}
		out = append(out, a)
	}
	return out
}
