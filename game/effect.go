package game

import "encoding/json"

// EffectTag discriminates the Effect variants named in spec.md §3.
type EffectTag int

const (
	EffectShipImpact EffectTag = iota
	EffectBeamHit
	EffectShipDestroyed
	EffectExhaustedMissile
	EffectDamage
	EffectMessage
)

// Effect is one outcome emitted by a simulation step, accumulated in round
// order and broadcast to every connection in the scenario.
type Effect struct {
	Tag      EffectTag
	Target   string // ShipImpact
	Origin   string // BeamHit
	Name     string // ExhaustedMissile
	Position Vec3
	System   ShipSystem // Damage
	Amount   int        // Damage
	Content  string     // Message, Damage (human-readable description)
}

func ShipImpactEffect(target string, pos Vec3) Effect {
	return Effect{Tag: EffectShipImpact, Target: target, Position: pos}
}

func BeamHitEffect(origin string, pos Vec3) Effect {
	return Effect{Tag: EffectBeamHit, Origin: origin, Position: pos}
}

func ShipDestroyedEffect(pos Vec3) Effect {
	return Effect{Tag: EffectShipDestroyed, Position: pos}
}

func ExhaustedMissileEffect(name string, pos Vec3) Effect {
	return Effect{Tag: EffectExhaustedMissile, Name: name, Position: pos}
}

func DamageEffect(system ShipSystem, amount int, content string) Effect {
	return Effect{Tag: EffectDamage, System: system, Amount: amount, Content: content}
}

func MessageEffect(content string) Effect {
	return Effect{Tag: EffectMessage, Content: content}
}

var effectTagNames = [...]string{
	EffectShipImpact:       "ShipImpact",
	EffectBeamHit:          "BeamHit",
	EffectShipDestroyed:    "ShipDestroyed",
	EffectExhaustedMissile: "ExhaustedMissile",
	EffectDamage:           "Damage",
	EffectMessage:          "Message",
}

func (t EffectTag) String() string { return effectTagNames[t] }

type effectWire struct {
	Tag      string      `json:"tag"`
	Target   string      `json:"target,omitempty"`
	Origin   string      `json:"origin,omitempty"`
	Name     string      `json:"name,omitempty"`
	Position *Vec3       `json:"position,omitempty"`
	System   *ShipSystem `json:"system,omitempty"`
	Amount   int         `json:"amount,omitempty"`
	Content  string      `json:"content,omitempty"`
}

// MarshalJSON renders an Effect as a tagged object, matching Action's wire
// form: {"tag":"ShipImpact","target":"ship2","position":[x,y,z]}.
func (e Effect) MarshalJSON() ([]byte, error) {
	w := effectWire{
		Tag:     e.Tag.String(),
		Target:  e.Target,
		Origin:  e.Origin,
		Name:    e.Name,
		Content: e.Content,
	}
	if e.Tag == EffectShipImpact || e.Tag == EffectBeamHit || e.Tag == EffectShipDestroyed || e.Tag == EffectExhaustedMissile {
		w.Position = &e.Position
	}
	if e.Tag == EffectDamage {
		w.System = &e.System
		w.Amount = e.Amount
	}
	return json.Marshal(w)
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var w effectWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	for tag, name := range effectTagNames {
		if name == w.Tag {
			e.Tag = EffectTag(tag)
			e.Target = w.Target
			e.Origin = w.Origin
			e.Name = w.Name
			if w.Position != nil {
				e.Position = *w.Position
			}
			if w.System != nil {
				e.System = *w.System
			}
			e.Amount = w.Amount
			e.Content = w.Content
			return nil
		}
	}
	return NewError(BadRequest, "unknown effect tag %q", w.Tag)
}
