package domain

// Quest is a category goal: master Target items of Category.
type Quest struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Target   int      `json:"target"`
}

// QuestProgress is a quest evaluated against one learner's memory states.
type QuestProgress struct {
	Quest
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// DefaultQuests returns the quests every learner starts with.
func DefaultQuests() []Quest {
	return []Quest{
		{ID: 1, Title: "Weave 5 Verbs", Category: CategoryVerb, Target: 5},
		{ID: 2, Title: "Master 3 Emotions", Category: CategoryEmotion, Target: 3},
		{ID: 3, Title: "Connect 4 Food Words", Category: CategoryFood, Target: 4},
	}
}

// Evaluate builds the progress for q given the number of mastered items
// in its category. Progress is capped at the target.
func (q Quest) Evaluate(mastered int) QuestProgress {
	progress := max(0, min(mastered, q.Target))
	return QuestProgress{
		Quest:     q,
		Progress:  progress,
		Completed: progress >= q.Target,
	}
}
