package domain

// Audience is the set of actors a note is addressed to.
type Audience struct {
	recipients []Actor
}

func (au *Audience) Add(actor Actor) {
	if actor.IsEmpty() {
		return
	}
	for _, r := range au.recipients {
		if r.SameActor(actor) {
			return
		}
	}
	au.recipients = append(au.recipients, actor)
}

func (au *Audience) Recipients() []Actor {
	return au.recipients
}

func (au *Audience) NonEmpty() bool {
	return len(au.recipients) > 0
}

// Contains reports whether the given actor is addressed.
func (au *Audience) Contains(actor Actor) bool {
	for _, r := range au.recipients {
		if r.SameActor(actor) {
			return true
		}
	}
	return false
}
