package models

// ReactorSet holds the identities that reacted with one emoji, in reaction order.
type ReactorSet = OrderedSet

// ReactionSnapshot maps each emoji with at least one reactor to its reactors.
type ReactionSnapshot map[string][]string

func (m *Message) ToggleReaction(emoji, userID string) ReactionSnapshot {
	set, ok := m.Reactions[emoji]
	if !ok {
		set = NewOrderedSet()
		m.Reactions[emoji] = set
	}
	set.Toggle(userID)
	return m.ReactionSnapshot()
}

func (m *Message) ReactionSnapshot() ReactionSnapshot {
	out := make(ReactionSnapshot, len(m.Reactions))
	for emoji, set := range m.Reactions {
		if set.Len() == 0 {
			continue
		}
		out[emoji] = set.Items()
	}
	return out
}
